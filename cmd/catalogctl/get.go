package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/client"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/pricing"
	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.GetProduct(cmd.Context(), args[0])
			if errors.Is(err, client.ErrProductNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "product %s not found\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			printProduct(cmd.OutOrStdout(), *p)
			return nil
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := a.client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), c.Name)
			}
			return nil
		},
	}
}

// productLine is the one-line listing used by feed.
func productLine(p domain.Product) string {
	d := pricing.Derive(p)

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] ", p.Name, p.Category)
	b.WriteString(pricing.Format(d.Price))
	if d.Original != nil {
		fmt.Fprintf(&b, " (was %s, %s)", pricing.Format(*d.Original), d.Badge)
	}
	if d.OutOfStock {
		b.WriteString(" OUT OF STOCK")
	}
	return b.String()
}

func printProduct(w io.Writer, p domain.Product) {
	fmt.Fprintf(w, "%s\n", productLine(p))
	fmt.Fprintf(w, "  id:       %s\n", p.ID)
	fmt.Fprintf(w, "  image:    %s\n", p.ImageURL)
	fmt.Fprintf(w, "  added:    %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
}
