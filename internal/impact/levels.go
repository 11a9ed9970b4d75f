package impact

// Stage is one level threshold and what reaching it represents.
type Stage struct {
	Target float64
	Result string
}

// Level is where a running total sits within a stage table.
type Level struct {
	Stage    int
	Result   string
	Target   float64
	Progress float64
}

const startResult = "Getting started"

var (
	WasteStages = []Stage{
		{5, "Save one sea turtle"},
		{10, "Cut 2,000 plastic straws"},
		{15, "Clear 15kg of ocean litter"},
		{22, "Cut 500 plastic bags"},
		{30, "Run a disposable-free cafe for a month"},
		{40, "Shrink a plastic island by 1m²"},
		{52, "Protect a coral colony"},
		{66, "Save 100 seabirds"},
		{82, "Restore one marine zone"},
		{100, "Make 1km of plastic-free beach"},
	}
	WaterStages = []Stage{
		{5000, "A week of drinking water for one child"},
		{10000, "A month of water for a household in need"},
		{16000, "Plant 10 saplings in a drying region"},
		{23000, "Fill a well in an arid region"},
		{31000, "A week of water for a school"},
		{40000, "Help grow crops in a drought area"},
		{50000, "A month of drinking water for a village"},
		{61000, "Restore 1km² of wetland"},
		{73000, "A year of drinking water for a family"},
		{86000, "Bring 1km of river back to life"},
	}
	CarbonStages = []Stage{
		{1500, "Cut an hour of city fine dust"},
		{3000, "Match three trees' yearly uptake"},
		{4800, "Skip 200km of driving"},
		{6900, "Keep 1m² of arctic ice"},
		{9300, "Protect 10m² of polar bear habitat"},
		{12000, "Keep 100m² of rainforest"},
		{15000, "Give one polar bear an ice floe"},
		{18300, "Cut a household's monthly emissions"},
		{21900, "Preserve 50m² of sea ice"},
		{25800, "Grow a carbon-neutral forest"},
	}
)

// LevelInfo returns the stage being worked toward: the first stage whose
// target value has not reached, or the last stage once all are reached.
// Progress is the percentage from the previous target to this one.
func LevelInfo(value float64, stages []Stage) Level {
	if len(stages) == 0 {
		return Level{Stage: 1, Result: startResult}
	}
	reached := 0
	for _, s := range stages {
		if value >= s.Target {
			reached++
		}
	}
	stage := min(reached+1, len(stages))
	cur := stages[stage-1]
	prev := 0.0
	if stage > 1 {
		prev = stages[stage-2].Target
	}
	progress := 0.0
	if cur.Target > prev {
		progress = (value - prev) / (cur.Target - prev) * 100
	}
	progress = max(0, min(100, progress))
	result := cur.Result
	if result == "" {
		result = startResult
	}
	return Level{Stage: stage, Result: result, Target: cur.Target, Progress: progress}
}

// Levels evaluates stats against the default stage tables.
func Levels(s Stats) (water, waste, carbon Level) {
	return LevelInfo(s.TotalWater, WaterStages), LevelInfo(s.TotalWaste, WasteStages), LevelInfo(s.TotalCO2, CarbonStages)
}
