package evaluator

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"

	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/classifier"
)

const (
	CommandPrefix = ":"

	yaegiModule = "github.com/traefik/yaegi"
)

type command struct {
	help string
	run  func(c *Commands, args []string) domain.Outcome
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help": {
			help: "list the available commands",
			run: func(c *Commands, _ []string) domain.Outcome {
				return domain.Value{Value: helpText()}
			},
		},
		"version": {
			help: "show the versions of the kernel and of the interpreter",
			run: func(c *Commands, _ []string) domain.Outcome {
				return domain.Value{Value: versionText()}
			},
		},
		"reset": {
			help: "discard every declaration made so far",
			run: func(c *Commands, _ []string) domain.Outcome {
				if c.evaluator == nil {
					return domain.RuntimeFailure{Message: domain.ErrNoEvaluator.Error()}
				}

				if err := c.evaluator.Reset(); err != nil {
					return domain.RuntimeFailure{Message: err.Error()}
				}

				return domain.Unit{}
			},
		},
	}
}

// Commands runs the administrative commands of the kernel. Commands start with ":".
type Commands struct {
	log logger.Logger

	evaluator *Evaluator
}

func NewCommands(evaluator *Evaluator) *Commands {
	c := &Commands{evaluator: evaluator}
	config.InitLogger(&c.log, c)
	return c
}

// IsCommand implements domain.CommandRunner.
func (c *Commands) IsCommand(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), CommandPrefix)
}

// Run implements domain.CommandRunner.
func (c *Commands) Run(code string) *domain.NormalizedResponse {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(code), CommandPrefix))

	var name string
	if len(fields) > 0 {
		name = fields[0]
	}

	cmd, ok := commands[name]
	if !ok {
		c.log.Debug("Unknown command \"%s\".", name)
		return classifier.Classify(domain.RuntimeFailure{Message: "Unknown command: " + name}, nil, nil)
	}

	c.log.Debug("Running command \"%s\".", name)
	return classifier.Classify(cmd.run(c, fields[1:]), nil, nil)
}

func helpText() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		b.WriteString(fmt.Sprintf("  %s%-10s %s\n", CommandPrefix, name, commands[name].help))
	}

	return strings.TrimRight(b.String(), "\n")
}

func versionText() string {
	yaegiVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == yaegiModule {
				yaegiVersion = dep.Version
				break
			}
		}
	}

	return fmt.Sprintf("%s %s\n%s %s\nyaegi %s", domain.ImplementationName, domain.ImplementationVersion,
		domain.LanguageName, domain.LanguageVersion(), yaegiVersion)
}
