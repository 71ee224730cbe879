package oauth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// SpreadsheetsScope grants read and write access to spreadsheets.
const SpreadsheetsScope = sheets.SpreadsheetsScope

// ServiceAccountCredentials loads a Google service-account key file.
func ServiceAccountCredentials(ctx context.Context, path string, scopes ...string) (*google.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return ServiceAccountCredentialsFromJSON(ctx, data, scopes...)
}

func ServiceAccountCredentialsFromJSON(ctx context.Context, data []byte, scopes ...string) (*google.Credentials, error) {
	if len(scopes) == 0 {
		scopes = []string{SpreadsheetsScope}
	}
	creds, err := google.CredentialsFromJSONWithType(ctx, data, google.ServiceAccount, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	return creds, nil
}
