// voxgate is the deterministic decision gate between a speech/multimodal
// front-end and the host it controls. Transcription and execution stay
// outside; voxgate turns each input event into exactly one auditable
// decision.
package main

import "github.com/dkoval/voxgate/internal/cli"

func main() {
	cli.Execute()
}
