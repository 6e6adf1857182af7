package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"DriveKeeper/internal/cli/api"
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/model"
)

func printDrive(d model.Drive) {
	state := "offline"
	if d.IsAvailable {
		state = "online"
	}
	label := ""
	if d.VolumeLabel != nil {
		label = "  label=" + *d.VolumeLabel
	}
	fmt.Fprintf(Out, "- %s  %s  type=%s  %s%s\n", d.ID, d.UniqueIdentifier, d.DriveType, state, label)
	for _, m := range d.Mounts {
		mark := " "
		if m.IsAvailable {
			mark = "*"
		}
		fmt.Fprintf(Out, "    %s %s: %s\n", mark, m.ClientID, m.MountPoint)
	}
}

type driveAddCmd struct{}

func (driveAddCmd) Name() string        { return "drive-add" }
func (driveAddCmd) Description() string { return "Зарегистрировать носитель на этом клиенте" }
func (driveAddCmd) Usage() string {
	return "drive-add <identifier> <mount> <type> [label] [provider]"
}

func (driveAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return ErrUsage
	}
	info := model.DriveInfo{UniqueIdentifier: args[0], MountPoint: args[1], DriveType: args[2]}
	if len(args) > 3 {
		info.VolumeLabel = args[3]
	}
	if len(args) > 4 {
		info.CloudProvider = args[4]
	}
	var d model.Drive
	if err := api.New(cfg).DoJSON(ctx, http.MethodPost, "/api/drives", info, &d); err != nil {
		return err
	}
	printDrive(d)
	return nil
}

type driveStatusCmd struct{}

func (driveStatusCmd) Name() string        { return "drive-status" }
func (driveStatusCmd) Description() string { return "Отметить носитель подключённым или отключённым" }
func (driveStatusCmd) Usage() string       { return "drive-status <identifier> on|off" }

func (driveStatusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	var available bool
	switch strings.ToLower(args[1]) {
	case "on":
		available = true
	case "off":
	default:
		return ErrUsage
	}
	path := "/api/drives/by-identifier/" + url.PathEscape(args[0]) + "/availability"
	var d model.Drive
	if err := api.New(cfg).DoJSON(ctx, http.MethodPut, path, map[string]bool{"available": available}, &d); err != nil {
		return err
	}
	printDrive(d)
	return nil
}

type drivesCmd struct{}

func (drivesCmd) Name() string        { return "drives" }
func (drivesCmd) Description() string { return "Показать все носители пользователя" }
func (drivesCmd) Usage() string       { return "drives" }

func (drivesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	var list []model.Drive
	if err := api.New(cfg).DoJSON(ctx, http.MethodGet, "/api/drives", nil, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет носителей")
		return nil
	}
	for _, d := range list {
		printDrive(d)
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
	return nil
}

type offlineCmd struct{}

func (offlineCmd) Name() string        { return "offline" }
func (offlineCmd) Description() string { return "Отметить все носители этого клиента отключёнными" }
func (offlineCmd) Usage() string       { return "offline" }

func (offlineCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	var resp map[string]int64
	if err := api.New(cfg).DoJSON(ctx, http.MethodPost, "/api/clients/offline", nil, &resp); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Отключено точек монтирования: %d\n", resp["updated"])
	return nil
}

func init() {
	RegisterCmd(driveAddCmd{})
	RegisterCmd(driveStatusCmd{})
	RegisterCmd(drivesCmd{})
	RegisterCmd(offlineCmd{})
}
