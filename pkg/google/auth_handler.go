package google

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	tokens      TokenRepository
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(tokens TokenRepository, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
	}

	return &GoogleAuth{tokens: tokens, oauthConfig: oauthConfig}
}

// OAuthLogin godoc
// @Summary Start the Google OAuth flow
// @Tags Integrations
// @Produce json
// @Param finalUrl query string false "Where the browser returns after the callback"
// @Success 200 {object} googleAuthRedirect
// @Router /api/integrations/google/auth/login [get]
// @Security XUserId
func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "User not found", err.Error())
		return
	}

	stateNonce := uuid.New().String()
	if err := g.tokens.StartLogin(r.Context(), userId, stateNonce); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", err.Error())
		return
	}

	finalUrl := r.URL.Query().Get("finalUrl")
	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

// OAuthCallback godoc
// @Summary Google OAuth redirect target
// @Tags Integrations
// @Param code query string true "Authorization code"
// @Param state query string true "finalUrl|nonce"
// @Success 302
// @Router /api/integrations/google/auth/callback [get]
func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	finalUrl, nonce, ok := strings.Cut(r.FormValue("state"), "|")
	if !ok || nonce == "" {
		w.Header().Set("Content-Type", "application/json")
		rest.WriteError(w, http.StatusBadRequest, "Invalid OAuth state", "")
		return
	}

	token, err := g.oauthConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if err := g.tokens.CompleteLogin(r.Context(), nonce, token); err != nil {
		log.Errorf("unable to store Google auth token for nonce %s: %v", nonce, err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	log.Debug("Successfully stored Google auth token for nonce: ", nonce)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// OAuthLogout godoc
// @Summary Forget the Google grant of the current user
// @Tags Integrations
// @Success 204
// @Router /api/integrations/google/auth/logout [post]
// @Security XUserId
func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "User not found", err.Error())
		return
	}
	if err := g.tokens.Delete(r.Context(), userId); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HasGrant reports whether the user completed the OAuth flow.
func (g *GoogleAuth) HasGrant(ctx context.Context, userId int) (bool, error) {
	token, err := g.tokens.GetToken(ctx, userId)
	if err != nil {
		return false, err
	}
	return token != nil, nil
}

func (g *GoogleAuth) getClient(ctx context.Context, userId int) (*http.Client, error) {
	token, err := g.tokens.GetToken(ctx, userId)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(context.Background(), token), nil
}
