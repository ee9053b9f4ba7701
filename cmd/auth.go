package main

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/server"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/ui"
)

const defaultApprovalTimeout = 5 * time.Minute

// AuthTracker links the tracker account with the device code flow.
func (r *Runner) AuthTracker(ctx context.Context, cmd *cli.Command) error {
	tracker := r.trackerService(models.Credential{Provider: models.ProviderTracker})

	dc, err := tracker.RequestDeviceCode(ctx)
	if err != nil {
		return err
	}

	link := services.NewShortener(r.config.Shortener.BaseURL, r.httpClient).Shorten(ctx, dc.VerificationURL)
	r.writePlain("Open %s and enter code: %s\n", link, ui.Styles().Title(dc.UserCode))
	if err := shared.OpenBrowser(dc.VerificationURL); err != nil {
		r.logger.Debug("could not open browser", "error", err)
	}

	r.logger.Info("waiting for tracker authorization", "expires_in", dc.ExpiresIn)
	token, err := tracker.PollDeviceToken(ctx, dc)
	if err != nil {
		return err
	}

	if err := r.saveToken(models.ProviderTracker, models.InfoTrackerToken, token.AccessToken); err != nil {
		return fmt.Errorf("failed to save tracker token: %w", err)
	}
	r.logger.Info("tracker token saved", "path", r.creds.Path(string(models.ProviderTracker)))
	return r.writePlain("✓ Tracker linked\n")
}

// AuthCatalog links the catalog account.
//
// The browser approves a request token and redirects to the local callback server,
// which exchanges it for the account access token. With --manual the user presses
// Enter after approving instead.
func (r *Runner) AuthCatalog(ctx context.Context, cmd *cli.Command) error {
	catalog := r.catalogService(models.Credential{Provider: models.ProviderCatalog})
	manual := cmd.Bool("manual")

	redirect := ""
	if !manual {
		redirect = "http://" + r.config.CallbackAddr() + "/approved"
	}
	requestToken, err := catalog.RequestToken(ctx, redirect)
	if err != nil {
		return err
	}

	exchange := func(ctx context.Context, requestToken string) (*oauth2.Token, error) {
		at, err := catalog.AccessToken(ctx, requestToken)
		if err != nil {
			return nil, err
		}
		token := &oauth2.Token{AccessToken: at.Token, TokenType: "Bearer"}
		return token.WithExtra(map[string]any{"account_id": at.AccountID}), nil
	}

	var token *oauth2.Token
	if manual {
		token, err = r.approveManually(ctx, catalog.ApprovalURL(requestToken), requestToken, exchange)
	} else {
		token, err = r.approveWithCallback(ctx, cmd.Duration("timeout"), catalog.ApprovalURL(requestToken), requestToken, exchange)
	}
	if err != nil {
		return err
	}

	if err := r.saveToken(models.ProviderCatalog, models.InfoCatalogToken, token.AccessToken); err != nil {
		return fmt.Errorf("failed to save catalog token: %w", err)
	}
	if account, ok := token.Extra("account_id").(string); ok && account != "" {
		if err := r.store.UserInfo.Put(models.InfoCatalogUser, account); err != nil {
			r.logger.Warn("failed to record catalog account", "error", err)
		}
	}

	r.logger.Info("catalog token saved", "path", r.creds.Path(string(models.ProviderCatalog)))
	return r.writePlain("✓ Catalog linked\n")
}

func (r *Runner) approveWithCallback(ctx context.Context, timeout time.Duration, approvalURL, requestToken string, exchange server.ExchangeFunc) (*oauth2.Token, error) {
	handler := server.NewApprovalHandler(requestToken, exchange)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	srv, err := server.StartCallbackServer(r.config.CallbackAddr(), router, r.logger)
	if err != nil {
		return nil, err
	}
	defer srv.Shutdown()

	r.promptApproval(ctx, approvalURL)
	r.logger.Info("waiting for approval", "callback", srv.Addr())

	if timeout <= 0 {
		timeout = defaultApprovalTimeout
	}
	select {
	case res := <-handler.Result():
		if err := res.Error(); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		return res.Token, nil
	case err := <-srv.Errors():
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: no approval after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) approveManually(ctx context.Context, approvalURL, requestToken string, exchange server.ExchangeFunc) (*oauth2.Token, error) {
	r.promptApproval(ctx, approvalURL)
	r.writePlain("Press Enter once you have approved access... ")

	if _, err := bufio.NewReader(r.input).ReadString('\n'); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return exchange(ctx, requestToken)
}

func (r *Runner) promptApproval(ctx context.Context, approvalURL string) {
	link := services.NewShortener(r.config.Shortener.BaseURL, r.httpClient).Shorten(ctx, approvalURL)
	r.writePlain("Approve list access at: %s\n", link)
	if err := shared.OpenBrowser(approvalURL); err != nil {
		r.logger.Debug("could not open browser", "error", err)
	}
}

// AuthRecommender stores the model API key after checking it.
func (r *Runner) AuthRecommender(ctx context.Context, cmd *cli.Command) error {
	key := models.Credential{Provider: models.ProviderRecommender, Token: cmd.String("key")}

	if !cmd.Bool("skip-check") && !r.recommenderService(key).ValidateCredential(ctx) {
		return fmt.Errorf("%w: recommender key was rejected", shared.ErrInvalidCredentials)
	}

	if err := r.saveToken(models.ProviderRecommender, "", key.Token); err != nil {
		return fmt.Errorf("failed to save recommender key: %w", err)
	}
	return r.writePlain("✓ Recommender key saved\n")
}

// AuthStatus reports which credentials are stored and, with --check, whether they work.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.credentials()
	check := cmd.Bool("check")
	style := ui.Styles()

	validators := map[models.Provider]func() bool{
		models.ProviderTracker: func() bool {
			_, err := r.trackerService(creds.Tracker).History(ctx, time.Now().UTC().Format(time.RFC3339))
			return err == nil
		},
		models.ProviderCatalog: func() bool {
			return r.catalogService(creds.Catalog).ValidateCredential(ctx)
		},
		models.ProviderRecommender: func() bool {
			return r.recommenderService(creds.Recommender).ValidateCredential(ctx)
		},
	}

	r.writePlainHeader("Accounts")
	for _, c := range []models.Credential{creds.Tracker, creds.Catalog, creds.Recommender} {
		switch {
		case !c.Present():
			r.writePlain("%-12s %s\n", c.Provider, style.Err("✗ not linked"))
		case !check:
			r.writePlain("%-12s %s\n", c.Provider, style.OK("✓ linked"))
		case validators[c.Provider]():
			r.writePlain("%-12s %s\n", c.Provider, style.OK("✓ valid"))
		default:
			r.writePlain("%-12s %s\n", c.Provider, style.Warn("! rejected"))
		}
	}

	r.writePlainHeader("Updates")
	if shared.LockHeld(r.config.LockPath()) {
		r.writePlain("Lock:     %s\n", style.Warn("held ("+r.config.LockPath()+")"))
	} else {
		r.writePlain("Lock:     free\n")
	}
	timer := r.timer()
	if last := timer.LastRun(); last.IsZero() {
		r.writePlain("Last run: never\n")
	} else {
		r.writePlain("Last run: %s\n", last.Local().Format(time.DateTime))
	}

	if file, err := r.listRepository().Load(); err == nil {
		enabled := 0
		for _, l := range file.Lists {
			if l.Enabled {
				enabled++
			}
		}
		r.writePlain("Lists:    %d configured, %d enabled\n", len(file.Lists), enabled)
	}
	return nil
}
