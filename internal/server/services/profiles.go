package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	sc "github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ProfileService manages the optional profile picture stored on a user
// record and publishes it to object storage.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewProfileService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "profiles"),
	}
}

func ProfilePictureKey(userID string) string {
	return fmt.Sprintf("users/%s/profile/%v", userID, uuid.New())
}

func (s *ProfileService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		// path-style addressing for MinIO
		o.UsePathStyle = true
	}), nil
}

// SetProfilePicture stores data on the user record. Empty data clears the
// picture.
func (s *ProfileService) SetProfilePicture(ctx context.Context, userID string, data []byte) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		if len(data) == 0 {
			user.ProfilePicture = nil
		} else {
			user.ProfilePicture = append([]byte(nil), data...)
		}
		return repo.Save(ctx, user)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "profile picture updated", "user_id", userID, "size", len(data))
	return nil
}

// PublishProfilePicture uploads the stored picture under a fresh key and
// returns a presigned GET URL valid for config.ProfileURLValidity.
func (s *ProfileService) PublishProfilePicture(ctx context.Context, userID string) (string, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(user.ProfilePicture) == 0 {
		return "", fmt.Errorf("%w: user has no profile picture", common.ErrorNotFound)
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := ProfilePictureKey(user.ID)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(user.ProfilePicture),
		ContentLength: aws.Int64(int64(len(user.ProfilePicture))),
		ContentType:   aws.String(http.DetectContentType(user.ProfilePicture)),
	})
	if err != nil {
		return "", fmt.Errorf("upload profile picture: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.ProfileURLValidity))
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "profile picture published", "user_id", user.ID, "key", key)
	return req.URL, nil
}
