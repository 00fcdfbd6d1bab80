package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const identityToolkitBaseURL = "https://identitytoolkit.googleapis.com/v1"

var identityScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/identitytoolkit",
}

// IdentityDeleter removes the sign-in identity behind a user id.
type IdentityDeleter interface {
	DeleteUser(ctx context.Context, uid string) error
}

// FirebaseIdentity calls the Identity Toolkit admin API with service-account credentials.
type FirebaseIdentity struct {
	ProjectID string
	BaseURL   string
	client    *http.Client
}

// NewFirebaseIdentity loads credentials from credentialsFile, or from the
// default credential chain when it is empty.
func NewFirebaseIdentity(ctx context.Context, projectID, credentialsFile string) (*FirebaseIdentity, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		raw, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("read firebase credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, raw, identityScopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, identityScopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("firebase credentials: %w", err)
	}
	return NewFirebaseIdentityWithClient(projectID, oauth2.NewClient(ctx, creds.TokenSource)), nil
}

func NewFirebaseIdentityWithClient(projectID string, client *http.Client) *FirebaseIdentity {
	return &FirebaseIdentity{ProjectID: projectID, BaseURL: identityToolkitBaseURL, client: client}
}

// DeleteUser deletes uid. A user that no longer exists counts as deleted.
func (f *FirebaseIdentity) DeleteUser(ctx context.Context, uid string) error {
	body, err := json.Marshal(map[string]string{"localId": uid})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/projects/%s/accounts:delete", strings.TrimRight(f.BaseURL, "/"), f.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity toolkit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if strings.Contains(string(raw), "USER_NOT_FOUND") {
		return nil
	}
	return fmt.Errorf("identity toolkit status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
