// Dev smoke test for the generation client: sends one classification-style
// prompt to a local Ollama instance and prints the raw output.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/vamoapp/vamo/pkg/ollama"
)

func main() {
	baseURL := flag.String("url", "http://localhost:11434", "Ollama base URL")
	model := flag.String("model", "llama3", "model name")
	flag.Parse()

	cfg := ollama.DefaultConfig()
	cfg.BaseURL = *baseURL

	client, err := ollama.NewDefaultClient(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.Health(ctx); err != nil {
		log.Fatalf("ollama not reachable: %v", err)
	}

	prompt := `A founder just said: "We shipped our onboarding flow today."
Respond with a single JSON object, no other text:
{"reply": "<encouraging reply>", "intent": "<one of: feature, customer, revenue, ask, general>", "business_update": {"progress_delta": <integer 0-5>, "traction_signal": <string or null>, "valuation_adjustment": "<one of: up, down, none>"}}`

	out, err := client.Generate(ctx, *model, prompt)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}
