package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/compose"
	"github.com/danmuck/inkctl/internal/config"
	"github.com/danmuck/inkctl/internal/label"
)

func runLabel(ctx context.Context, cfg clientConfig, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: inkctl label text|product|design|show ...", command.ErrUsage)
	}
	switch args[0] {
	case "text":
		if len(args) < 3 {
			return fmt.Errorf("%w: inkctl label text <name> <content>", command.ErrUsage)
		}
		plan, err := compose.TextLabel(args[1], args[2])
		if err != nil {
			return err
		}
		return composePlan(ctx, cfg, plan, out)
	case "product":
		plan, err := productPlan(args[1:], out)
		if err != nil {
			return err
		}
		return composePlan(ctx, cfg, plan, out)
	case "design":
		if len(args) < 2 {
			return fmt.Errorf("%w: inkctl label design <file.toml>", command.ErrUsage)
		}
		design, err := config.LoadDesign(args[1])
		if err != nil {
			return err
		}
		plan, err := design.Plan()
		if err != nil {
			return err
		}
		return composePlan(ctx, cfg, plan, out)
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("%w: inkctl label show <message-id>", command.ErrUsage)
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: message id %q", command.ErrUsage, args[1])
		}
		return showMessage(ctx, cfg, id, out)
	}
	return fmt.Errorf("%w: label %s", command.ErrUnknownCommand, args[0])
}

func productPlan(args []string, out io.Writer) (*compose.Plan, error) {
	fs := flag.NewFlagSet("label product", flag.ContinueOnError)
	fs.SetOutput(out)
	designPath := fs.String("design", "", "design document; replaces the field flags")
	name := fs.String("name", "", "message name (default PharmaLabel_NNN)")
	gtin := fs.String("gtin", "", "GTIN (14 digits)")
	mfg := fs.String("mfg", "", "manufacture date MMYYYY")
	exp := fs.String("exp", "", "expiry date MMYYYY")
	batch := fs.String("batch", "", "batch number")
	sn := fs.String("sn", "", "serial number")
	tmda := fs.String("tmda", "", "TMDA registration number")
	barcode := fs.String("barcode", string(compose.BarcodeDynamic), "barcode sources: single|multi|dynamic")
	noSNDate := fs.Bool("no-sn-date", false, "omit the live HHmmss field next to SN")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *designPath != "" {
		design, err := config.LoadDesign(*designPath)
		if err != nil {
			return nil, err
		}
		if design.Kind != config.KindProduct {
			return nil, fmt.Errorf("%w: %s is a %s design", config.ErrInvalidDesign, *designPath, design.Kind)
		}
		return design.Plan()
	}

	mode, err := compose.ParseBarcodeMode(*barcode)
	if err != nil {
		return nil, err
	}
	fields := label.ProductFields{GTIN: *gtin, MFG: *mfg, EXP: *exp, Batch: *batch, SN: *sn, TMDAReg: *tmda}
	if fields.GTIN == "" || fields.EXP == "" || fields.Batch == "" {
		return nil, fmt.Errorf("%w: -gtin, -exp and -batch are required", command.ErrUsage)
	}
	msgName := *name
	if msgName == "" {
		msgName = fmt.Sprintf("PharmaLabel_%03d", rand.IntN(999)+1)
	}
	return compose.ProductLabel(msgName, fields, compose.Options{Barcode: mode, SNDate: !*noSNDate})
}

type reportView struct {
	RunID     string             `json:"run_id"`
	Message   string             `json:"message"`
	MessageID int                `json:"message_id,omitempty"`
	Sources   []compose.Artifact `json:"sources"`
	Objects   []compose.Artifact `json:"objects"`
	Failed    string             `json:"failed,omitempty"`
}

func composePlan(ctx context.Context, cfg clientConfig, plan *compose.Plan, out io.Writer) error {
	conn, client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	report, runErr := compose.New(client).Run(ctx, plan)
	view := reportView{
		RunID:     report.RunID.String(),
		Message:   report.Message,
		MessageID: report.MessageID,
		Sources:   report.Sources,
		Objects:   report.Objects,
	}
	var stepErr *compose.StepError
	if errors.As(runErr, &stepErr) {
		view.Failed = fmt.Sprintf("%s %q: %v", stepErr.Stage, stepErr.Name, stepErr.Err)
	}
	if err := printJSON(out, view); err != nil {
		return err
	}
	return runErr
}

func showMessage(ctx context.Context, cfg clientConfig, id int, out io.Writer) error {
	conn, client, err := dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	detail, err := client.MessageWithSources(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "message %d %q prefs=%d objects=%d\n", detail.Message.ID, detail.Message.Name,
		len(detail.Message.PrintPrefs()), len(detail.Message.Objects))
	for _, obj := range detail.Message.Objects {
		fmt.Fprintf(out, "  object %d [%s] %q sources=%d\n", obj.ID, obj.Type, obj.Name, len(obj.SourceList))
	}
	for _, src := range detail.Sources {
		if src.Err != nil {
			fmt.Fprintf(out, "  source %d [%s] error: %v\n", src.Ref.ID, src.Ref.Type, src.Err)
			continue
		}
		fmt.Fprintf(out, "  source %d [%s] %q content=%v\n", src.Source.ID, src.Source.Type, src.Source.Name,
			src.Source.Attribute["content"])
	}
	return nil
}
