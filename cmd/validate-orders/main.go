package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gunvolt24/ordersync/pkg/validate"
)

// Проверка файла заказов перед загрузкой: валидные записи уходят в stdout
// (по одной JSON-строке), отчёт и ошибки в stderr. Без -in читается stdin в формате JSONL.
func main() {
	in := flag.String("in", "", "input file (.json or .jsonl); stdin when empty")
	format := flag.String("format", string(validate.FormatAuto), "input format: auto|json|jsonl")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *in, validate.InputFormat(*format), os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, format validate.InputFormat, out, report io.Writer) error {
	if path == "" {
		path = "/dev/stdin"
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
	}

	summary, err := validate.ValidateFile(ctx, validate.NewOrderValidator(), path, format, out, report)
	if err != nil {
		fmt.Fprintf(report, "%s: %v (%s)\n", path, err, summary)
		return err
	}
	fmt.Fprintf(report, "%s: ok (%s)\n", path, summary)
	return nil
}
