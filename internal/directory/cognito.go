// Package directory implements the remote user-directory port against
// AWS Cognito. The service layer only sees the small Directory interface;
// everything Cognito-specific stays here.
package directory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/finbridge/backoffice/internal/metrics"
)

// Cognito wraps the identity-provider client for one user pool.
type Cognito struct {
	client     *cognito.Client
	userPoolID string
}

// New loads the default AWS config (env, shared config, instance role)
// and returns a directory bound to the given user pool.
func New(ctx context.Context, userPoolID string) (*Cognito, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Cognito{client: cognito.NewFromConfig(cfg), userPoolID: userPoolID}, nil
}

// CreateUser provisions the account, adds it to its role group and kicks
// off the set-password email. The welcome email with the throwaway
// temporary password is suppressed. Returns the directory subject id.
func (c *Cognito) CreateUser(ctx context.Context, email, firstName, lastName, role string) (string, error) {
	defer observe("create", time.Now())

	out, err := c.client.AdminCreateUser(ctx, &cognito.AdminCreateUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String("custom:firstName"), Value: aws.String(firstName)},
			{Name: aws.String("custom:lastName"), Value: aws.String(lastName)},
		},
		TemporaryPassword: aws.String(tempPassword()),
		MessageAction:     types.MessageActionTypeSuppress,
	})
	if err != nil {
		return "", err
	}

	if _, err := c.client.AdminAddUserToGroup(ctx, &cognito.AdminAddUserToGroupInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
		GroupName:  aws.String(role),
	}); err != nil {
		return "", err
	}

	if _, err := c.client.AdminResetUserPassword(ctx, &cognito.AdminResetUserPasswordInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	}); err != nil {
		return "", err
	}

	var sub string
	if out.User != nil {
		for _, attr := range out.User.Attributes {
			if aws.ToString(attr.Name) == "sub" {
				sub = aws.ToString(attr.Value)
			}
		}
	}
	return sub, nil
}

// SetGroups moves the account between role groups.
func (c *Cognito) SetGroups(ctx context.Context, email string, add, remove []string) error {
	defer observe("set_groups", time.Now())
	for _, g := range add {
		if _, err := c.client.AdminAddUserToGroup(ctx, &cognito.AdminAddUserToGroupInput{
			UserPoolId: aws.String(c.userPoolID),
			Username:   aws.String(email),
			GroupName:  aws.String(g),
		}); err != nil {
			return err
		}
	}
	for _, g := range remove {
		if _, err := c.client.AdminRemoveUserFromGroup(ctx, &cognito.AdminRemoveUserFromGroupInput{
			UserPoolId: aws.String(c.userPoolID),
			Username:   aws.String(email),
			GroupName:  aws.String(g),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cognito) Disable(ctx context.Context, email string) error {
	defer observe("disable", time.Now())
	_, err := c.client.AdminDisableUser(ctx, &cognito.AdminDisableUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	return err
}

func (c *Cognito) Enable(ctx context.Context, email string) error {
	defer observe("enable", time.Now())
	_, err := c.client.AdminEnableUser(ctx, &cognito.AdminEnableUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	return err
}

func (c *Cognito) ResetPassword(ctx context.Context, email string) error {
	defer observe("reset_password", time.Now())
	_, err := c.client.AdminResetUserPassword(ctx, &cognito.AdminResetUserPasswordInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	return err
}

// IsDisabled reports whether the account is disabled. A missing account
// reads as disabled.
func (c *Cognito) IsDisabled(ctx context.Context, email string) (bool, error) {
	defer observe("get", time.Now())
	out, err := c.client.AdminGetUser(ctx, &cognito.AdminGetUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			return true, nil
		}
		return false, err
	}
	return !out.Enabled, nil
}

func observe(op string, start time.Time) {
	metrics.DirectoryCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// tempPassword builds a throwaway value satisfying the pool's composition
// policy; the user never sees it because the reset email follows at once.
func tempPassword() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("A1!%d", time.Now().UnixNano())
	}
	return "A1!" + base64.RawURLEncoding.EncodeToString(buf)
}
