package cmd

import (
	"fmt"
	"log"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/config"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/dataset"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/query"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/storage"
)

var noticesOpenOnly bool

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Print the current notice dataset to the terminal",
	Run:   runNotices,
}

func init() {
	rootCmd.AddCommand(noticesCmd)
	noticesCmd.Flags().BoolVar(&noticesOpenOnly, "open", false, "Only show notices with open registration")
}

func runNotices(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tiers, err := storage.NewTiers(cfg.App.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data dir: %v", err)
	}

	cache := dataset.New(tiers, cfg.App.CacheTTL)
	notices, err := cache.Snapshot()
	if err != nil {
		color.Red("No dataset available — run `chamadasbot update` first (%v)", err)
		return
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	shown := 0
	for i := range notices {
		n := &notices[i]
		if noticesOpenOnly && !n.IsOpen {
			continue
		}
		shown++

		id := "?/?"
		if k := n.Key(); k != "" {
			id = k
		}
		if n.IsOpen {
			green.Printf("● %s  aberto, restam %s\n", id, query.FormatRemaining(n.HoursRemaining))
		} else {
			yellow.Printf("● %s  encerrado\n", id)
		}
		if n.Program != nil {
			fmt.Printf("  %s\n", *n.Program)
		}
		if n.Link != nil {
			cyan.Printf("  %s\n", *n.Link)
		}
	}

	if shown == 0 {
		yellow.Println("Nenhum edital para mostrar.")
		return
	}
	fmt.Printf("\n%d edital(is)\n", shown)
}
