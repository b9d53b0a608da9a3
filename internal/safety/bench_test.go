package safety

import (
	"testing"

	"github.com/dkoval/voxgate/internal/model"
)

func BenchmarkEvaluateAllow(b *testing.B) {
	cfg := DefaultConfig()
	in := intent("open", "chrome", "open chrome")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(in, model.ModeCommand, cfg)
	}
}

func BenchmarkEvaluateEscalated(b *testing.B) {
	cfg := DefaultConfig()
	in := intent("delete", "all files", "delete all files")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(in, model.ModeCommand, cfg)
	}
}
