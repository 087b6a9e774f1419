// Package secrets retrieves database credentials from AWS Secrets Manager.
package secrets

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/pkg/errors"
)

// Credentials is the structured secret record stored for each database.
type Credentials struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"dbname"`
}

// Provider returns the credential record stored under a secret name.
type Provider interface {
	GetCredentials(secretName string) (Credentials, error)
}

func NewProvider(region string) Provider {
	awsConfig := aws.NewConfig()
	awsConfig.Region = aws.String(region)
	sess := session.Must(session.NewSession(awsConfig))
	return &provider{api: secretsmanager.New(sess)}
}

// NewProviderWithAPI allows the SDK API to be substituted in tests.
func NewProviderWithAPI(api secretsmanageriface.SecretsManagerAPI) Provider {
	return &provider{api: api}
}

type provider struct {
	api secretsmanageriface.SecretsManagerAPI
}

func (p *provider) GetCredentials(secretName string) (Credentials, error) {
	var c Credentials
	if secretName == "" {
		return c, errors.New("secret name is not set")
	}
	out, err := p.api.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return c, errors.Wrapf(err, "unable to retrieve secret %q", secretName)
	}
	if out.SecretString == nil {
		return c, errors.Errorf("secret %q has no string value", secretName)
	}
	if err := json.Unmarshal([]byte(*out.SecretString), &c); err != nil {
		return c, errors.Wrapf(err, "unable to decode secret %q", secretName)
	}
	return c, nil
}

// Static wraps fixed credentials in the Provider interface, used when a DSN
// or test supplies the credentials directly.
type Static struct {
	Creds Credentials
}

func (s Static) GetCredentials(string) (Credentials, error) {
	return s.Creds, nil
}
