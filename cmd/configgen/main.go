package main

import (
	"flag"

	"github.com/danmuck/inkctl/internal/config"
	"github.com/danmuck/inkctl/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()

	kind := flag.String("kind", config.KindText, "design kind: text|product|custom")
	output := flag.String("output", "", "output path for the design template (default design.<kind>.toml)")
	validate := flag.Bool("validate", false, "validate an existing design file")
	input := flag.String("input", "", "design path for validation")
	force := flag.Bool("force", false, "overwrite an existing design file")
	flag.Parse()

	if *validate {
		if *input == "" {
			log.Fatal().Msg("configgen: -validate needs -input")
		}
		design, err := config.LoadDesign(*input)
		if err != nil {
			log.Fatal().Err(err).Msg("configgen: load design")
		}
		plan, err := design.Plan()
		if err != nil {
			log.Fatal().Err(err).Msg("configgen: build plan")
		}
		sources, objects := plan.Counts()
		log.Info().Msgf("Validated %s design %q at %s sources=%d objects=%d",
			design.Kind, plan.MessageName(), *input, sources, objects)
		return
	}

	target := *output
	if target == "" {
		target = "design." + *kind + ".toml"
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("configgen: write template")
	}
	log.Info().Msgf("Wrote %s design template to %s", *kind, target)
}
