package commands

import (
	"context"
	"fmt"
	"net/http"

	"DriveKeeper/internal/cli/api"
	"DriveKeeper/internal/config"
)

type healthResponse struct {
	Status string `json:"status"`
}

type healthCmd struct{}

func (healthCmd) Name() string        { return "health" }
func (healthCmd) Description() string { return "Проверить доступность сервера и хранилища" }
func (healthCmd) Usage() string       { return "health" }
func (healthCmd) Anonymous()          {}

func (healthCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	var hr healthResponse
	if err := api.New(cfg).DoJSON(ctx, http.MethodGet, "/healthz", nil, &hr); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Status:", hr.Status)
	return nil
}

func init() { RegisterCmd(healthCmd{}) }
