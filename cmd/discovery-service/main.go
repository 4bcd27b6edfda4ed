package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/mymichlin/discovery/internal/discoveryservice"
)

func main() {
	if err := discoveryservice.Run(); err != nil {
		log.Error().Err(err).Msg("discovery-service exited with error")
		os.Exit(1)
	}
}
