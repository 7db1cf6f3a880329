package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"pulseboard/pkg/pulseboard"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", defaultAddr(), "pulseboard daemon address")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "status"
	}

	client := pulseboard.NewClient(*addr)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch cmd {
	case "status":
		err = printStatus(ctx, client)
	case "alerts":
		err = printAlerts(ctx, client)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want status or alerts)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func defaultAddr() string {
	if v := os.Getenv("PULSEBOARD_ADDR"); v != "" {
		return v
	}
	return "http://127.0.0.1:8090"
}

func printStatus(ctx context.Context, client *pulseboard.Client) error {
	health, err := client.GetHealth(ctx)
	if err != nil {
		return err
	}
	b, err := client.GetBoard(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("daemon %s since %s, %d widgets\n\n",
		health.Status, health.StartedAt.Format(time.RFC3339), health.Widgets)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Widget", "Status", "Data", "Last fetch", "Error")
	for _, w := range b.Widgets {
		data := "-"
		if w.HasData {
			data = "yes"
		}
		last := "-"
		if !w.LastFetchedAt.IsZero() {
			last = w.LastFetchedAt.Format("15:04:05")
		}
		table.Append(w.Name, w.Status, data, last, w.LastError)
	}
	table.Render()
	return nil
}

func printAlerts(ctx context.Context, client *pulseboard.Client) error {
	alerts, err := client.GetAlerts(ctx, 20)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("no alerts recorded")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Emitted", "Event", "Country", "Event time")
	for _, a := range alerts {
		table.Append(
			a.EmittedAt.Format("01-02 15:04"),
			a.Title,
			a.Country,
			a.EventTime.Format("01-02 15:04"),
		)
	}
	table.Render()
	return nil
}
