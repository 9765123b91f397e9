package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	day        string
	minGames   int
	recent     int
	champGames int
)

func init() {
	dailyCmd.Flags().StringVar(&day, "day", "", "Tracking day as YYYY-MM-DD (default today)")
	duosCmd.Flags().IntVar(&minGames, "min-games", 0, "Minimum games together (default from server config)")
	profileCmd.Flags().IntVar(&recent, "recent", 0, "Games in the recent KDA window")
	profileCmd.Flags().IntVar(&champGames, "champ-games", 0, "Solo/Duo games in the champion window")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(duosCmd)
	rootCmd.AddCommand(stacksCmd)
	rootCmd.AddCommand(queuesCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(rateLimitCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server and its cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/health", nil)
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List tracked players",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/players", nil)
	},
}

var addCmd = &cobra.Command{
	Use:   "add Name#TAG",
	Short: "Start tracking a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/players/add", url.Values{"riot_id": args})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [Name#TAG...]",
	Short: "Fetch new matches for the given players, or everyone",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/update", url.Values{"riot_id": args})
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill [Name#TAG...]",
	Short: "Walk match history back to the season start",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/backfill", url.Values{"riot_id": args})
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show per-player records for a tracking day",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		if day != "" {
			query.Set("day", day)
		}
		return performGetRequest(cmd.OutOrStdout(), "/records/daily", query)
	},
}

var duosCmd = &cobra.Command{
	Use:   "duos",
	Short: "Rank Solo/Duo pairs this season",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		if minGames > 0 {
			query.Set("min_games", strconv.Itoa(minGames))
		}
		return performGetRequest(cmd.OutOrStdout(), "/duos", query)
	},
}

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "Rank five-player flex stacks this season",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/stacks", nil)
	},
}

var queuesCmd = &cobra.Command{
	Use:   "queues [Name#TAG]",
	Short: "Count cached games per queue, for one player or the whole pool",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return performGetRequest(cmd.OutOrStdout(), "/queues", nil)
		}
		return performGetRequest(cmd.OutOrStdout(), "/players/queues", url.Values{"riot_id": args})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile Name#TAG",
	Short: "Show a player's recent KDA and most played Solo/Duo champions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{"riot_id": args}
		if recent > 0 {
			query.Set("recent", strconv.Itoa(recent))
		}
		if champGames > 0 {
			query.Set("champ_games", strconv.Itoa(champGames))
		}
		return performGetRequest(cmd.OutOrStdout(), "/players/profile", query)
	},
}

var rateLimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Show the upstream rate limiter windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/ratelimit", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.OutOrStdout(), "/metrics", nil)
	},
}

func performGetRequest(out io.Writer, endpoint string, query url.Values) error {
	target := host + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	fmt.Fprintf(out, "Making request to %s\n", target)

	resp, err := http.Get(target)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Fprintf(out, "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintln(out, "Response Body:")
	fmt.Fprintln(out, string(body))

	return nil
}
