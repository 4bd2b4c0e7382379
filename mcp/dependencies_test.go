package mcp

import (
	"github.com/rs/zerolog"

	"github.com/ludo-technologies/cilflow/domain"
)

func NewTestDependencies(reader domain.MethodReader, path string) *Dependencies {
	return &Dependencies{
		reader:     reader,
		configPath: path,
		logger:     zerolog.Nop(),
	}
}
