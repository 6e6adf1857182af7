package commands

import (
	"DriveKeeper/internal/cli/api"
	"DriveKeeper/internal/config"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoIdentity — команде нужен пользователь, а он не задан (-user или CLIENT_USER_ID).
var ErrNoIdentity = errors.New("user id is not set: use -user or CLIENT_USER_ID")

// Dispatch is the single entry point to execute CLI commands.
// It prints help and usage messages and returns a process exit code.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return 0
		}
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	name := strings.ToLower(args[0])
	if name == "help" { // dkcli help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return 0
		}
		if c, ok := Get(args[1]); ok {
			fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
			return 0
		}
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return 2
	}

	if _, anon := c.(anonymous); !anon && cfg.UserID <= 0 {
		fmt.Fprintf(Out, "%s error: %v\n", name, ErrNoIdentity)
		return 2
	}

	err := c.Run(ctx, cfg, args[1:])
	var se *api.StatusError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return 2
	case errors.As(err, &se) && se.Code < 500:
		// ошибка запроса: показываем ответ сервера как есть
		fmt.Fprintf(Out, "%s: %s\n", name, se.Body)
		return 1
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
		return 1
	}
}
