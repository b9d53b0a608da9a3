package audit

import (
	"path/filepath"
	"testing"
)

// FuzzRecordVerify writes arbitrary entry content and checks that the
// chain always verifies: hashing must be insensitive to the payload.
func FuzzRecordVerify(f *testing.F) {
	f.Add("open chrome", "approved", "command")
	f.Add("", "", "")
	f.Add("delete \"all\" files\n", "blocked", "command")
	f.Add("日本語テキスト", "rejected", "unknown")

	f.Fuzz(func(t *testing.T, raw, status, kind string) {
		path := filepath.Join(t.TempDir(), "fuzz.jsonl")
		l, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 3; i++ {
			e := testEntry(status)
			e.RawText = raw
			e.Kind = kind
			if err := l.Record(e); err != nil {
				t.Fatalf("record: %v", err)
			}
		}
		l.Close()

		result := Verify(path)
		if !result.Valid {
			t.Fatalf("chain invalid for raw=%q: line %d: %s", raw, result.ErrorLine, result.Error)
		}
		if result.Lines != 3 {
			t.Fatalf("expected 3 lines, got %d", result.Lines)
		}
	})
}
