package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/client"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalogFile is the seed format:
//
//	categories: [Skincare, Hair]
//	products:
//	  - name: Lotion
//	    category: Skincare
//	    price: 12.5
//	    discountPercentage: 20
//	    imageUrl: /uploads/lotion.png
//	    description: soft hands
type catalogFile struct {
	Categories []string      `yaml:"categories"`
	Products   []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Name               string   `yaml:"name"`
	Category           string   `yaml:"category"`
	Price              *float64 `yaml:"price"`
	DiscountPercentage *float64 `yaml:"discountPercentage"`
	ImageURL           string   `yaml:"imageUrl"`
	Description        string   `yaml:"description"`
	InStock            *bool    `yaml:"inStock"`
}

func (p seedProduct) request() domain.CreateProductRequest {
	return domain.CreateProductRequest{
		Name:               p.Name,
		Category:           p.Category,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		ImageURL:           p.ImageURL,
		Description:        p.Description,
		InStock:            p.InStock,
	}
}

func parseCatalog(r io.Reader) (*catalogFile, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i, p := range f.Products {
		if p.Name == "" || p.Category == "" {
			return nil, fmt.Errorf("product %d: name and category are required", i+1)
		}
		if p.Price == nil {
			return nil, fmt.Errorf("product %d: price is required", i+1)
		}
	}
	return &f, nil
}

func newSeedCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create categories and products from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()

			catalog, err := parseCatalog(fh)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			for _, name := range catalog.Categories {
				_, err := a.client.CreateCategory(ctx, name)
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
					fmt.Fprintf(out, "category %s exists\n", name)
					continue
				}
				if err != nil {
					return fmt.Errorf("category %s: %w", name, err)
				}
				fmt.Fprintf(out, "category %s created\n", name)
			}

			for _, sp := range catalog.Products {
				p, err := a.client.CreateProduct(ctx, sp.request())
				if err != nil {
					return fmt.Errorf("product %s: %w", sp.Name, err)
				}
				fmt.Fprintf(out, "product %s created (%s)\n", p.Name, p.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "seed file")
	return cmd
}
