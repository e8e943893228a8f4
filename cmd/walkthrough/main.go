package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/xela07ax/quantumpay/internal/flow"
	"github.com/xela07ax/quantumpay/internal/infra"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "HTTP facade base URL")
	grpcAddr := flag.String("grpc", "", "use the gRPC facade at this address instead of HTTP")
	bankID := flag.String("bank", "", "pick this bank without prompting")
	poll := flag.Duration("poll", flow.DefaultPollInterval, "recent events poll interval")
	timeout := flag.Duration("timeout", 30*time.Second, "per-call timeout, must exceed the simulated bank delay")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger, err := infra.NewLogger(infra.LoggerConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var api flow.API
	if *grpcAddr != "" {
		conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logger.Fatal("failed to create gRPC client", zap.String("addr", *grpcAddr), zap.Error(err))
		}
		defer conn.Close()
		api = flow.NewGRPCClient(conn)
	} else {
		api = flow.NewHTTPClient(*apiURL, *timeout)
	}

	w := &walkthrough{
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		timeout: *timeout,
	}
	f := flow.New(api, logger, flow.WithPollInterval(*poll), flow.WithOnUpdate(w.onUpdate))
	defer f.Close()

	if err := w.run(ctx, f, *bankID); err != nil && ctx.Err() == nil {
		logger.Error("walkthrough aborted", zap.Error(err))
		os.Exit(1)
	}
}

type walkthrough struct {
	in      *bufio.Scanner
	out     io.Writer
	timeout time.Duration

	mu      sync.Mutex // onUpdate зовется и из горутины опроса
	lastTop string
}

func (w *walkthrough) run(ctx context.Context, f *flow.Flow, preselected string) error {
	// Экран 1: счет
	fmt.Fprintln(w.out, "== Pay Bill ==")
	fmt.Fprintln(w.out, "$69.45, balance due February 8")
	fmt.Fprintln(w.out, "  [1] Pay by bank")
	fmt.Fprintln(w.out, "  [2] Debit/credit card (unavailable)")
	for {
		choice, err := w.prompt("Select a payment type: ")
		if err != nil {
			return err
		}
		if choice == "1" {
			break
		}
		fmt.Fprintln(w.out, "Only pay by bank is available in this demo.")
	}
	if err := f.PayByBank(); err != nil {
		return err
	}

	// Экран 2: интро
	fmt.Fprintln(w.out, "\n== Quantum Pay uses Mastercard Data Connect to link your accounts ==")
	fmt.Fprintln(w.out, "  Your data will be securely accessed, processed and shared")
	fmt.Fprintln(w.out, "  Your data will only be saved and used with your permission")
	if _, err := w.prompt("Press Enter to continue "); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := f.Next(callCtx)
	cancel()
	if err != nil {
		return err
	}

	// Экран 3: выбор банка
	banks := f.Snapshot().Banks
	if len(banks) == 0 {
		return fmt.Errorf("no banks available, is the backend running?")
	}
	fmt.Fprintln(w.out, "\n== Find your bank ==")
	for i, b := range banks {
		fmt.Fprintf(w.out, "  [%d] %s\n", i+1, b.Name)
	}
	selected := preselected
	for selected == "" {
		choice, err := w.prompt("Pick a bank: ")
		if err != nil {
			return err
		}
		if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(banks) {
			selected = banks[n-1].ID
		}
	}
	if err := f.SelectBank(selected); err != nil {
		return err
	}

	// Экран 4: подключение
	snap := f.Snapshot()
	fmt.Fprintf(w.out, "\n== By continuing you'll be securely redirected to %s ==\n", snap.Selected.Name)
	for {
		choice, err := w.prompt("Enter to connect, q to quit: ")
		if err != nil {
			return err
		}
		if strings.EqualFold(choice, "q") {
			return nil
		}
		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		fmt.Fprintln(w.out, "Connecting…")
		banner, err := f.Connect(callCtx)
		cancel()
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, "[%s] %s\n", banner.Kind, banner.Text)
	}
}

func (w *walkthrough) prompt(label string) (string, error) {
	fmt.Fprint(w.out, label)
	if !w.in.Scan() {
		if err := w.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(w.in.Text()), nil
}

// onUpdate печатает ленту событий, когда опрос приносит новые записи.
func (w *walkthrough) onUpdate(s flow.Snapshot) {
	if s.State != flow.StateShareData || len(s.Events) == 0 {
		return
	}
	top := s.Events[0]
	key := top.SessionID + "/" + string(top.Outcome) + "/" + top.Timestamp.String()

	w.mu.Lock()
	defer w.mu.Unlock()
	if key == w.lastTop {
		return
	}
	w.lastTop = key

	fmt.Fprintln(w.out, "\n-- Recent Events --")
	for _, e := range s.Events {
		raw, err := json.Marshal(e)
		if err != nil {
			continue
		}
		fmt.Fprintf(w.out, "  %-8s %s\n", e.Outcome, raw)
	}
}
