package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parkminsu/janbu/internal/errs"
	"github.com/parkminsu/janbu/internal/record"
)

// NewOrderCommand creates the order command group.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Operate on orders",
	}
	cmd.AddCommand(newOrderSetStatusCommand(rootOpts))
	return cmd
}

func newOrderSetStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Change an order's status",
		Long: fmt.Sprintf(`Change an order's status and run the cascade: debounced customer
notification, and for delivered orders a grade recomputation for the
owning customer.

Valid statuses: %v`, record.Statuses),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(rootOpts)
			if err != nil {
				return err
			}
			defer c.Close()

			orderID, newStatus := args[0], record.Status(args[1])
			if err := c.orders.SetOrderStatus(cmd.Context(), orderID, newStatus); err != nil {
				if errs.IsNotFound(err) {
					return WrapExitError(ExitCommandError, "order not found", err)
				}
				return WrapExitError(ExitCommandError, "set-status failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s -> %s\n", orderID, newStatus)
			return nil
		},
	}
}
