// Package service holds the application policies layered over the repositories.
package service

import (
	"context"

	"snapgram/internal/observability"
)

var serviceLog = observability.NewServiceLogger()

// fail logs err against service.method and returns it unchanged.
func fail(ctx context.Context, service, method string, err error, fields map[string]interface{}) error {
	serviceLog.LogFailure(ctx, service, method, err, fields)
	return err
}
