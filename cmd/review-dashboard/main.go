// Command review-dashboard is an operator CLI over the escalation queue.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/animeempire/support-bot/internal/adapters/store"
	"github.com/animeempire/support-bot/internal/config"
	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/factory"
	"github.com/animeempire/support-bot/internal/logging"
)

var (
	interactive = flag.Bool("interactive", false, "resolve reviews interactively")
	statsOnly   = flag.Bool("stats", false, "print statistics and exit")
	resolveID   = flag.Int64("resolve", 0, "mark the given review id resolved and exit")
	resolvedBy  = flag.String("by", "manual", "name recorded as the resolver")
)

func main() {
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.InitConsoleLogger(false, false)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// The dashboard reads the same config as the bot, so both always
	// point at the same queue.
	st, err := factory.NewStoreFactory(cfg, logger).CreateStore()
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	d := &dashboard{store: st}

	switch {
	case *statsOnly:
		err = d.printStats(ctx)
	case *resolveID != 0:
		err = d.resolve(ctx, *resolveID, *resolvedBy)
	case *interactive:
		err = d.interactive(ctx)
	default:
		err = d.display(ctx)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

type dashboard struct {
	store store.Store
}

func (d *dashboard) display(ctx context.Context) error {
	if err := d.printStats(ctx); err != nil {
		return err
	}

	pending, err := d.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending reviews: %w", err)
	}

	if len(pending) == 0 {
		fmt.Println()
		fmt.Println(strings.Repeat("=", 70))
		fmt.Println("✅ No items pending review!")
		fmt.Println(strings.Repeat("=", 70))
		return nil
	}

	fmt.Println("\n🚩 PENDING REVIEWS")
	fmt.Println(strings.Repeat("-", 70))
	now := time.Now()
	for _, item := range pending {
		age := now.Sub(item.CreatedAt).Hours()
		fmt.Printf("\n%s Review ID: %d | Priority: %s\n", priorityEmoji(item.Priority), item.ID, strings.ToUpper(string(item.Priority)))
		fmt.Printf("   Order:     #%s\n", item.OrderNumber)
		fmt.Printf("   Customer:  %s\n", item.SenderEmail)
		fmt.Printf("   Reason:    %s\n", item.Reason)
		fmt.Printf("   Created:   %s (%.1fh ago)\n", item.CreatedAt.Format("2006-01-02 15:04"), age)
	}
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Total: %d item(s) need attention\n", len(pending))
	fmt.Println(strings.Repeat("=", 70))
	return nil
}

func (d *dashboard) printStats(ctx context.Context) error {
	stats, err := d.store.Stats(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to gather stats: %w", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("🔍 HUMAN REVIEW DASHBOARD")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("\n📊 STATISTICS")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Total Emails Processed:    %d\n", stats.TotalProcessed)
	fmt.Printf("Automated Responses:       %d\n", stats.RepliesSent)
	fmt.Printf("Automation Rate:           %.1f%%\n", stats.AutomationRate())
	fmt.Printf("Items Pending Review:      %d\n", stats.PendingReviews)
	fmt.Printf("Items Resolved:            %d\n", stats.ResolvedTotal)
	return nil
}

func (d *dashboard) resolve(ctx context.Context, id int64, by string) error {
	item, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("review %d not found", id)
	}
	if item.Status == core.StatusResolved {
		fmt.Printf("Review #%d is already resolved (by %s)\n", id, item.ResolvedBy)
		return nil
	}
	if err := d.store.Resolve(ctx, id, by); err != nil {
		return err
	}
	fmt.Printf("✅ Review #%d marked as resolved\n", id)
	return nil
}

func (d *dashboard) interactive(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)

	for {
		if err := d.display(ctx); err != nil {
			return err
		}
		pending, err := d.store.ListPending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		fmt.Println("\nCommands:")
		fmt.Println("  [number]   - View details for review ID")
		fmt.Println("  r [number] - Mark review ID as resolved")
		fmt.Println("  q          - Quit")
		fmt.Print("\nEnter command: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		choice := strings.ToLower(strings.TrimSpace(line))

		switch {
		case choice == "q":
			return nil
		case strings.HasPrefix(choice, "r "):
			id, err := strconv.ParseInt(strings.TrimSpace(choice[2:]), 10, 64)
			if err != nil {
				fmt.Println("❌ Invalid review ID")
				continue
			}
			if err := d.resolve(ctx, id, *resolvedBy); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
		default:
			id, err := strconv.ParseInt(choice, 10, 64)
			if err != nil {
				fmt.Println("❌ Invalid command")
				continue
			}
			if err := d.details(ctx, id); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
		}
	}
}

func (d *dashboard) details(ctx context.Context, id int64) error {
	item, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("review %d not found", id)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📧 REVIEW DETAILS - ID #%d\n", id)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Order:      #%s\n", item.OrderNumber)
	fmt.Printf("Customer:   %s\n", item.SenderEmail)
	fmt.Printf("Reason:     %s\n", item.Reason)
	fmt.Printf("Priority:   %s\n", item.Priority)
	fmt.Printf("Status:     %s\n", item.Status)
	fmt.Printf("Created:    %s\n", item.CreatedAt.Format(time.RFC3339))
	if item.Status == core.StatusResolved {
		fmt.Printf("Resolved:   %s by %s\n", item.ResolvedAt.Format(time.RFC3339), item.ResolvedBy)
	}
	fmt.Printf("Message ID: %s\n", item.MessageID)
	fmt.Println(strings.Repeat("=", 70))
	return nil
}

func priorityEmoji(p core.Priority) string {
	switch p {
	case core.PriorityHigh:
		return "🔴"
	case core.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}
