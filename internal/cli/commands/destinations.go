package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"DriveKeeper/internal/cli/api"
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/model"
)

func printDestination(d model.Destination) {
	last := "never"
	if d.LastUsedAt != nil {
		last = d.LastUsedAt.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(Out, "- %s  %s  [%s]  used=%d  last=%s\n", d.ID, d.Path, d.Category, d.UsageCount, last)
}

type destAddCmd struct{}

func (destAddCmd) Name() string        { return "dest-add" }
func (destAddCmd) Description() string { return "Запомнить папку назначения" }
func (destAddCmd) Usage() string       { return "dest-add <path> [category]" }

func (destAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	req := map[string]string{"path": args[0]}
	if len(args) == 2 {
		req["category"] = args[1]
	}
	var d model.Destination
	if err := api.New(cfg).DoJSON(ctx, http.MethodPost, "/api/destinations", req, &d); err != nil {
		return err
	}
	printDestination(d)
	return nil
}

type destsCmd struct{}

func (destsCmd) Name() string        { return "dests" }
func (destsCmd) Description() string { return "Показать папки назначения (опционально по категории)" }
func (destsCmd) Usage() string       { return "dests [category]" }

func (destsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	path := "/api/destinations"
	if len(args) == 1 {
		path += "?category=" + url.QueryEscape(args[0])
	}
	var list []model.Destination
	if err := api.New(cfg).DoJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет папок назначения")
		return nil
	}
	for _, d := range list {
		printDestination(d)
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
	return nil
}

type destRmCmd struct{}

func (destRmCmd) Name() string        { return "dest-rm" }
func (destRmCmd) Description() string { return "Забыть папку назначения (история сохраняется)" }
func (destRmCmd) Usage() string       { return "dest-rm <id>" }

func (destRmCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	if err := api.New(cfg).DoJSON(ctx, http.MethodDelete, "/api/destinations/"+url.PathEscape(args[0]), nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Удалено:", args[0])
	return nil
}

type usageCmd struct{}

func (usageCmd) Name() string        { return "usage" }
func (usageCmd) Description() string { return "Учесть использование папки назначения" }
func (usageCmd) Usage() string       { return "usage <id> <files> <move|copy>" }

func (usageCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	files, err := strconv.Atoi(args[1])
	if err != nil || files < 0 {
		return ErrUsage
	}
	req := map[string]any{"file_count": files, "operation_type": strings.ToLower(args[2])}
	path := "/api/destinations/" + url.PathEscape(args[0]) + "/usage"
	if err := api.New(cfg).DoJSON(ctx, http.MethodPost, path, req, nil); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Учтено:", args[0])
	return nil
}

type captureCmd struct{}

func (captureCmd) Name() string        { return "capture" }
func (captureCmd) Description() string { return "Запомнить папки из завершённых операций" }
func (captureCmd) Usage() string       { return "capture <move|copy>:<dest> ..." }

func (captureCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	ops, err := parseOperations(args)
	if err != nil {
		return err
	}
	var captured []model.Destination
	req := map[string]any{"operations": ops}
	if err := api.New(cfg).DoJSON(ctx, http.MethodPost, "/api/destinations/capture", req, &captured); err != nil {
		return err
	}
	for _, d := range captured {
		printDestination(d)
	}
	fmt.Fprintf(Out, "Новых папок: %d\n", len(captured))
	return nil
}

// parseOperations разбирает аргументы вида move:/path/file.
func parseOperations(args []string) ([]model.CompletedOperation, error) {
	if len(args) == 0 {
		return nil, ErrUsage
	}
	ops := make([]model.CompletedOperation, 0, len(args))
	for _, a := range args {
		typ, dest, ok := strings.Cut(a, ":")
		if !ok || dest == "" {
			return nil, ErrUsage
		}
		ops = append(ops, model.CompletedOperation{Type: strings.ToLower(typ), Dest: dest})
	}
	return ops, nil
}

type analyticsCmd struct{}

func (analyticsCmd) Name() string        { return "analytics" }
func (analyticsCmd) Description() string { return "Сводка использования папок назначения" }
func (analyticsCmd) Usage() string       { return "analytics" }

func (analyticsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	var a model.UsageAnalytics
	if err := api.New(cfg).DoJSON(ctx, http.MethodGet, "/api/destinations/analytics", nil, &a); err != nil {
		return err
	}
	o := a.Overall
	fmt.Fprintf(Out, "Папок: %d  категорий: %d  использований: %d  файлов: %d\n",
		o.TotalDestinations, o.Categories, o.TotalUsage, o.TotalFiles)
	for _, c := range a.ByCategory {
		fmt.Fprintf(Out, "  %-24s папок=%d  использований=%d\n", c.Category, c.DestinationCount, c.TotalUsage)
	}
	if len(a.MostUsed) > 0 {
		fmt.Fprintln(Out, "Чаще всего:")
		for _, d := range a.MostUsed {
			printDestination(d)
		}
	}
	return nil
}

func init() {
	RegisterCmd(destAddCmd{})
	RegisterCmd(destsCmd{})
	RegisterCmd(destRmCmd{})
	RegisterCmd(usageCmd{})
	RegisterCmd(captureCmd{})
	RegisterCmd(analyticsCmd{})
}
