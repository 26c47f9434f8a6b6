package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
)

var (
	createLabel   string
	createCompany string
	createMax     int
	createDays    int

	listPage  int
	listLimit int
	listSort  string
	listOrder string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create and inspect access tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := open()
		if err != nil {
			return err
		}
		in := token.GenerateInput{Label: createLabel, MaxMessages: &createMax, ValidityDays: &createDays}
		if createCompany != "" {
			in.Company = &createCompany
		}
		g, err := token.NewService(token.NewRepo(gdb), cfg.AppURL).Generate(cmd.Context(), in)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:       %s\n", g.ID)
		fmt.Fprintf(out, "token:    %s\n", g.Token)
		fmt.Fprintf(out, "messages: %d\n", g.MaxMessages)
		fmt.Fprintf(out, "expires:  %s\n", g.ExpiresAt.Format(time.RFC3339))
		fmt.Fprintf(out, "url:      %s\n", g.URL)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tokens with usage counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := open()
		if err != nil {
			return err
		}
		page, err := token.NewService(token.NewRepo(gdb), cfg.AppURL).List(cmd.Context(), token.ListQuery{
			Page:      listPage,
			Limit:     listLimit,
			SortBy:    listSort,
			SortOrder: listOrder,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tCOMPANY\tUSED\tEXPIRES\tSESSIONS\tMESSAGES")
		for _, t := range page.Tokens {
			company := "-"
			if t.Company != nil {
				company = *t.Company
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%d\t%d\n",
				t.ID, t.Label, company, t.UsedMessages, t.MaxMessages,
				t.ExpiresAt.Format(time.DateOnly), t.SessionCount, t.ConversationCount)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		p := page.Pagination
		fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d tokens)\n", p.CurrentPage, p.TotalPages, p.TotalCount)
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().StringVar(&createLabel, "label", "", "label shown in the admin list (required)")
	tokenCreateCmd.Flags().StringVar(&createCompany, "company", "", "recruiter company")
	tokenCreateCmd.Flags().IntVar(&createMax, "max", token.DefaultMaxMessages, "message allowance")
	tokenCreateCmd.Flags().IntVar(&createDays, "days", token.DefaultValidityDays, "days until expiry")
	_ = tokenCreateCmd.MarkFlagRequired("label")

	tokenListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	tokenListCmd.Flags().IntVar(&listLimit, "limit", token.DefaultPageSize, "tokens per page")
	tokenListCmd.Flags().StringVar(&listSort, "sort", "createdAt", "sort key")
	tokenListCmd.Flags().StringVar(&listOrder, "order", "desc", "asc or desc")

	tokenCmd.AddCommand(tokenCreateCmd, tokenListCmd)
}
