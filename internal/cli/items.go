package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"grocery_sheets/internal/app"
	"grocery_sheets/internal/listing"
	"grocery_sheets/internal/products"
	"grocery_sheets/internal/session"
	"grocery_sheets/internal/sheets"

	"github.com/spf13/cobra"
)

// signedIn restores the session and loads the list, failing without one.
func signedIn(cmd *cobra.Command, a *App) (*app.App, error) {
	built, restored, err := a.start(cmd)
	if err != nil {
		return nil, err
	}
	if !restored {
		return nil, session.ErrNotAuthenticated
	}
	return built, nil
}

func newListCmd(a *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the grocery list",
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := signedIn(cmd, a)
			if err != nil {
				return writeErr(cmd, err)
			}
			return printView(cmd, a, built.Container.View(search))
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Only show products whose name contains this text")
	return cmd
}

func newAddCmd(a *App) *cobra.Command {
	var qty int
	var price float64

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a product to the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateAmounts(qty, price); err != nil {
				return writeErr(cmd, err)
			}
			draft := products.NewDraft(args[0], qty, price, false)
			if draft.Name == "" {
				return writeErr(cmd, fmt.Errorf("name is required"))
			}

			built, err := signedIn(cmd, a)
			if err != nil {
				return writeErr(cmd, err)
			}
			product, err := built.Container.Add(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return printProduct(cmd, a, product)
		},
	}
	cmd.Flags().IntVar(&qty, "qty", 1, "Quantity")
	cmd.Flags().Float64Var(&price, "price", 0, "Unit price")
	return cmd
}

func newEditCmd(a *App) *cobra.Command {
	var name string
	var qty int
	var price float64

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a product's name, quantity or price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := signedIn(cmd, a)
			if err != nil {
				return writeErr(cmd, err)
			}
			product, ok := built.Container.Find(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("%w: %s", sheets.ErrNotFound, args[0]))
			}

			if cmd.Flags().Changed("name") {
				product.Name = products.NewDraft(name, 0, 0, false).Name
				if product.Name == "" {
					return writeErr(cmd, fmt.Errorf("name is required"))
				}
			}
			if !cmd.Flags().Changed("qty") {
				qty = product.Quantity
			}
			if !cmd.Flags().Changed("price") {
				price = product.UnitPrice
			}
			if err := validateAmounts(qty, price); err != nil {
				return writeErr(cmd, err)
			}
			product = product.Reprice(qty, price)

			if err := built.Container.Update(cmd.Context(), product); err != nil {
				return err
			}
			return printProduct(cmd, a, product)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().IntVar(&qty, "qty", 0, "New quantity")
	cmd.Flags().Float64Var(&price, "price", 0, "New unit price")
	return cmd
}

func newCheckCmd(a *App, use string, purchased bool) *cobra.Command {
	short := "Mark a product as purchased"
	if !purchased {
		short = "Mark a product as not purchased"
	}

	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := signedIn(cmd, a)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, ok := built.Container.Find(args[0]); !ok {
				return writeErr(cmd, fmt.Errorf("%w: %s", sheets.ErrNotFound, args[0]))
			}
			product, err := built.Container.SetPurchased(cmd.Context(), args[0], purchased)
			if err != nil {
				return err
			}
			return printProduct(cmd, a, product)
		},
	}
}

func newRemoveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a product from the list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := signedIn(cmd, a)
			if err != nil {
				return writeErr(cmd, err)
			}
			return built.Container.Remove(cmd.Context(), args[0])
		},
	}
}

func validateAmounts(qty int, price float64) error {
	if qty < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

func printProduct(cmd *cobra.Command, a *App, p products.Product) error {
	if a.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), p)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	writeRow(tw, p)
	return tw.Flush()
}

func printView(cmd *cobra.Command, a *App, v listing.View) error {
	if a.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), v)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tQTY\tUNIT\tTOTAL")
	for _, p := range v.Items {
		writeRow(tw, p)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d items, %d purchased. Total %s, remaining %s\n",
		v.Summary.Count, v.Summary.Purchased,
		v.Summary.Total.StringFixed(2), v.Summary.Remaining.StringFixed(2))
	return nil
}

func writeRow(tw *tabwriter.Writer, p products.Product) {
	mark := "[ ]"
	if p.Purchased {
		mark = "[x]"
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
		mark, p.ID, p.Name, p.Quantity,
		strconv.FormatFloat(p.UnitPrice, 'f', 2, 64),
		strconv.FormatFloat(p.TotalPrice, 'f', 2, 64))
}
