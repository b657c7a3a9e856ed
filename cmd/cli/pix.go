package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/amirasaad/paygate/infra/initializer"
	"github.com/amirasaad/paygate/infra/provider/mercadopago"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/installments"
	"github.com/amirasaad/paygate/pkg/pix"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func connect(cmd *cobra.Command) (*mercadopago.Client, *config.App, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := initializer.SetupLogger(cfg.Log)
	return mercadopago.New(cfg.PaymentProviders.MercadoPago, logger), cfg, logger, nil
}

func pixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pix",
		Short: "Create and inspect PIX charges",
	}
	cmd.AddCommand(pixCreateCmd())
	cmd.AddCommand(pixStatusCmd())
	return cmd
}

func pixCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a PIX charge and optionally wait for it to settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			amountRaw, _ := flags.GetString("amount")
			amount, err := decimal.NewFromString(amountRaw)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amountRaw, err)
			}
			description, _ := flags.GetString("description")
			name, _ := flags.GetString("name")
			email, _ := flags.GetString("email")
			cpf, _ := flags.GetString("cpf")
			minutes, _ := flags.GetInt("expires")
			wait, _ := flags.GetBool("wait")

			mp, cfg, logger, err := connect(cmd)
			if err != nil {
				return err
			}
			gen := pix.NewGenerator(mp, logger, pix.WithDefaultExpiration(cfg.Pix.ExpirationMinutes))
			charge, err := gen.CreateCharge(cmd.Context(), pix.ChargeRequest{
				Amount:            amount,
				Description:       description,
				Payer:             pix.Payer{FullName: name, Email: email, CPF: cpf},
				ExpirationMinutes: minutes,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printCharge(out, charge)
			fmt.Fprintln(out, charge.QRCopyPasteText)
			if !wait {
				return nil
			}

			poller := pix.NewPoller(mp, logger,
				pix.WithInterval(cfg.Pix.PollInterval),
				pix.WithCeiling(cfg.Pix.PollCeiling),
				pix.WithOnPoll(func(c *domain.PixCharge) {
					fmt.Fprintf(out, "%s %s\n", info("⏱️ status:"), c.Status)
				}),
			)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			printOutcome(out, poller.Start(ctx, charge.ID, charge.ExpiresAt).Result())
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringP("amount", "a", "", "charge amount, e.g. 397.00")
	flags.StringP("description", "d", "", "charge description")
	flags.StringP("name", "n", "", "payer full name")
	flags.StringP("email", "e", "", "payer email")
	flags.String("cpf", "", "payer CPF")
	flags.Int("expires", 0, "expiration in minutes (default from config)")
	flags.BoolP("wait", "w", false, "poll until the charge settles")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func pixStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [charge-id]",
		Short: "Show the current state of a PIX charge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mp, _, logger, err := connect(cmd)
			if err != nil {
				return err
			}
			charge, err := pix.NewGenerator(mp, logger).GetCharge(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCharge(cmd.OutOrStdout(), charge)
			return nil
		},
	}
}

func installmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installments [amount] [card-number-or-bin]",
		Short: "List installment plans for a card BIN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			methodID, _ := cmd.Flags().GetString("payment-method")
			mp, _, logger, err := connect(cmd)
			if err != nil {
				return err
			}
			opts := installments.NewResolver(mp, logger).GetInstallments(cmd.Context(), amount, args[1], methodID)
			printInstallments(cmd.OutOrStdout(), opts)
			return nil
		},
	}
	cmd.Flags().StringP("payment-method", "m", "", "payment method id, e.g. visa")
	return cmd
}

func printCharge(out io.Writer, c *domain.PixCharge) {
	fmt.Fprintf(out, "%s %s\n", info("🔳 charge"), c.ID)
	fmt.Fprintf(out, "   status:  %s\n", c.Status)
	fmt.Fprintf(out, "   expires: %s\n", c.ExpiresAt.Local().Format(time.RFC3339))
}

func printOutcome(out io.Writer, res pix.Result) {
	switch res.Outcome {
	case pix.OutcomeApproved:
		fmt.Fprintln(out, ok("✅ payment approved"))
	case pix.OutcomeCancelled:
		fmt.Fprintln(out, info("polling cancelled"))
	default:
		fmt.Fprintln(out, bad("❌ payment "+string(res.Outcome)))
	}
}

func printInstallments(out io.Writer, opts []domain.InstallmentOption) {
	if len(opts) == 0 {
		fmt.Fprintln(out, info("no installment options"))
		return
	}
	for _, o := range opts {
		interest := "sem juros"
		if o.HasInterest {
			interest = "com juros"
		}
		fmt.Fprintf(out, "%2dx %s = %s (%s)\n",
			o.Count, o.PerInstallmentAmount.StringFixed(2), o.TotalAmount.StringFixed(2), interest)
	}
}
