package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const secretRegion = "ap-northeast-1"

func GetSecretFromAws(secretId string) (string, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(secretRegion))
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	conn := secretsmanager.NewFromConfig(cfg)

	result, err := conn.GetSecretValue(context.TODO(), &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.SecretString), nil
}

// GetMysqlSource splices the password stored under secretId into a
// user:@tcp(host)/db style DSN.
func GetMysqlSource(source string, secretId string) (string, error) {
	value, err := GetSecretFromAws(secretId)
	if err != nil {
		return "", err
	}

	var result map[string]string
	if err = json.Unmarshal([]byte(value), &result); err != nil {
		return "", fmt.Errorf("decode secret %s: %w", secretId, err)
	}
	passwd, ok := result["mysql_password"]
	if !ok {
		return "", fmt.Errorf("secret %s has no mysql_password", secretId)
	}
	return InjectMysqlPassword(source, passwd)
}
