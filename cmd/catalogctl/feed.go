package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/feed"
	"github.com/spf13/cobra"
)

const feedHelp = `Commands:
  <enter> | more        load the next page
  search <text>         filter by name or description
  category <name|all>   filter by category
  sort <newest|oldest>  change order
  retry                 reload after a failure
  quit`

// lineSignal turns "load more" input lines into bottom-of-page signals.
type lineSignal chan struct{}

func (s lineSignal) Reached() <-chan struct{} { return s }

func newFeedCmd(a *app) *cobra.Command {
	var (
		params  feed.Params
		sort    string
		limit   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Scroll through products page by page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			params.Sort = domain.SortOrder(sort)

			out := &feedPrinter{w: cmd.OutOrStdout()}
			f := feed.New(a.client, params,
				feed.WithLimit(limit),
				feed.WithTimeout(timeout),
				feed.WithLogger(a.logger),
				feed.WithOnChange(out.render))

			signal := make(lineSignal, 1)
			go f.Watch(ctx, signal)

			fmt.Fprintln(cmd.OutOrStdout(), feedHelp)
			f.Start(ctx)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				verb, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
				arg = strings.TrimSpace(arg)

				switch verb {
				case "", "more":
					select {
					case signal <- struct{}{}:
					default:
					}
				case "search":
					params.Search = arg
					f.SetParams(ctx, params)
				case "category":
					params.Category = arg
					f.SetParams(ctx, params)
				case "sort":
					params.Sort = domain.SortOrder(arg)
					f.SetParams(ctx, params)
				case "retry":
					f.Retry(ctx)
				case "quit", "q", "exit":
					return nil
				default:
					fmt.Fprintln(cmd.OutOrStdout(), feedHelp)
				}

				if ctx.Err() != nil {
					return nil
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&params.Search, "search", "", "search text")
	cmd.Flags().StringVar(&params.Category, "category", "", "category filter (all for none)")
	cmd.Flags().StringVar(&sort, "sort", string(domain.SortNewest), "newest or oldest")
	cmd.Flags().IntVar(&limit, "limit", feed.DefaultLimit, "products per page")
	cmd.Flags().DurationVar(&timeout, "fetch-timeout", feed.DefaultTimeout, "per-page fetch timeout")
	return cmd
}

// feedPrinter writes only the items not yet shown. Snapshots older than the
// last rendered one are dropped.
type feedPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	version uint64
	shown   int
}

func (p *feedPrinter) render(st feed.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st.Version <= p.version {
		return
	}
	p.version = st.Version

	if st.Loading {
		if st.Page == 1 {
			p.shown = 0
		}
		fmt.Fprintf(p.w, "loading page %d...\n", st.Page)
		return
	}

	if st.Err != nil {
		p.shown = 0
		fmt.Fprintf(p.w, "failed to load products: %v (type retry)\n", st.Err)
		return
	}

	if len(st.Items) == 0 {
		fmt.Fprintln(p.w, "no products found")
		return
	}

	for i := p.shown; i < len(st.Items); i++ {
		fmt.Fprintf(p.w, "%3d. %s\n", i+1, productLine(st.Items[i]))
	}
	p.shown = len(st.Items)

	if st.CanAdvance() {
		fmt.Fprintf(p.w, "-- page %d/%d, press enter for more --\n", st.Page, st.Pages)
	} else {
		fmt.Fprintf(p.w, "-- end of results (%d products) --\n", len(st.Items))
	}
}
