package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/di"
	"github.com/mikey/inbox-digest/internal/marketing"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	modelClient core.ModelClient,
	router *core.SummarizationRouter,
) error {
	defer logger.Sync()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	from := msg.Header.Get("From")
	subject := msg.Header.Get("Subject")
	hasListUnsubscribe := msg.Header.Get("List-Unsubscribe") != ""

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}
	body := string(bodyBytes)

	fromAddress := from
	if addr, err := mail.ParseAddress(from); err == nil {
		fromAddress = addr.Address
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))
	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", flags.Provider)

	startTime := time.Now()

	// Marketing mail is dropped before any model call
	if marketing.IsMarketing(marketing.Signals{
		FromAddress:        fromAddress,
		Subject:            subject,
		Body:               body,
		HasListUnsubscribe: hasListUnsubscribe,
	}) {
		fmt.Printf("\n=== Results ===\n")
		fmt.Printf("Filtered: true (classified as marketing mail)\n")
		fmt.Printf("Processing time: %v\n", time.Since(startTime))
		return nil
	}

	email := &core.Email{
		MessageID: msg.Header.Get("Message-Id"),
		From:      fromAddress,
		Subject:   subject,
		Body:      body,
	}

	result := router.Summarize(context.Background(), email)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Filtered: false\n")
	fmt.Printf("Summary:\n")
	for _, bullet := range result.SummaryBullets {
		fmt.Printf("  - %s\n", bullet)
	}
	if len(result.ActionItems) > 0 {
		fmt.Printf("Action items:\n")
		for _, item := range result.ActionItems {
			fmt.Printf("  - %s\n", item)
		}
	}
	fmt.Printf("Urgency: %s\n", result.Urgency)
	fmt.Printf("Used mid tier: %t\n", result.UsedMidTier)
	if result.EscalationReason != "" {
		fmt.Printf("Escalation reason: %s\n", result.EscalationReason)
	}
	fmt.Printf("Processing time: %v\n", duration)

	// Close any resources that need closing
	if closer, ok := modelClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close model client", zap.Error(err))
		}
	}

	return nil
}
