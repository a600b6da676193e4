package main

import (
	"context"
	"log"
	"strings"

	"github.com/pipevine/pipevine/pkg/cli"
	"github.com/pipevine/pipevine/pkg/model"
	"github.com/pipevine/pipevine/pkg/registry"
)

// The default pipeline gives the binary something to run and draw out of
// the box; projects register their own pipelines the same way.
func init() {
	registry.Register("default", func() (*model.Pipeline, error) {
		split, err := model.NewNode("split_words", []string{"text"}, []string{"words"},
			func(_ context.Context, inputs map[string]any) (map[string]any, error) {
				text, _ := inputs["text"].(string)

				return map[string]any{"words": strings.Fields(text)}, nil
			})
		if err != nil {
			return nil, err
		}

		count, err := model.NewNode("count_words", []string{"words"}, []string{"word_count"},
			func(_ context.Context, inputs map[string]any) (map[string]any, error) {
				words, _ := inputs["words"].([]string)

				return map[string]any{"word_count": len(words)}, nil
			})
		if err != nil {
			return nil, err
		}

		return model.New("default", split, count)
	})
}

func main() {
	app := cli.NewApp(registry.Default())
	if err := app.Execute(context.Background()); err != nil {
		log.Fatal(err)
	}
}
