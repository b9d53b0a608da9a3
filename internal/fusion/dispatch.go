package fusion

import "github.com/dkoval/voxgate/internal/model"

// Category tells a front-end which executor an approved decision
// belongs to. Fusion never executes anything itself.
type Category string

const (
	// CategoryExecution reaches out to the host: apps, files, system.
	CategoryExecution Category = "execution"
	// CategoryUtility is answered from local state: settings, navigation.
	CategoryUtility Category = "utility"
	// CategoryKnowledge needs an answer backend.
	CategoryKnowledge Category = "knowledge"
)

// utilityActions resolve locally without touching the host.
var utilityActions = map[string]bool{
	"set":    true,
	"search": true,
	"back":   true,
	"switch": true,
}

// Categorize routes an intent to its executor category. Control and
// unknown intents are utility: they never leave the assistant.
func Categorize(in model.Intent) Category {
	switch in.Kind {
	case model.KindQuestion:
		return CategoryKnowledge
	case model.KindControl, model.KindUnknown:
		return CategoryUtility
	}
	if utilityActions[in.Action] {
		return CategoryUtility
	}
	return CategoryExecution
}
