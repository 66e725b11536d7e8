// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client used to
// keep catalog exports and read import batches. It wraps the AWS SDK v2 and
// is configured for path-style access (required by CEPH/Hetzner).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme prefixes object locations given on the command line.
const Scheme = "s3://"

// Object names a stored object.
type Object struct {
	Bucket string
	Key    string
}

func (o Object) String() string {
	return Scheme + o.Bucket + "/" + o.Key
}

// IsObjectURI reports whether location points at object storage.
func IsObjectURI(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseObjectURI splits "s3://bucket/key" into its parts. A location without
// a bucket ("s3:///key" or "s3://key" with no slash) uses defaultBucket.
func ParseObjectURI(location, defaultBucket string) (Object, error) {
	if !IsObjectURI(location) {
		return Object{}, fmt.Errorf("%q is not an %s location", location, Scheme)
	}
	rest := strings.TrimPrefix(location, Scheme)

	obj := Object{Bucket: defaultBucket, Key: rest}
	if i := strings.Index(rest, "/"); i >= 0 {
		if i > 0 {
			obj.Bucket = rest[:i]
		}
		obj.Key = rest[i+1:]
	}
	if obj.Bucket == "" {
		return Object{}, fmt.Errorf("%q has no bucket and S3_BUCKET is not set", location)
	}
	if obj.Key == "" {
		return Object{}, fmt.Errorf("%q has no object key", location)
	}
	return obj, nil
}

// Client wraps an S3 client for export objects.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// New creates an S3 storage client configured for CEPH/Hetzner with
// path-style addressing. Returns (nil, nil) if endpoint or credentials
// are empty, allowing the CLI to run without storage.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
	}, nil
}

// Bucket returns the default bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// Upload stores data under obj.
func (c *Client) Upload(ctx context.Context, obj Object, contentType string, data []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", obj, err)
	}
	return nil
}

// Download retrieves the contents of obj.
func (c *Client) Download(ctx context.Context, obj Object) ([]byte, error) {
	output, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s: %w", obj, err)
	}
	defer output.Body.Close()
	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s: %w", obj, err)
	}
	return data, nil
}

// PresignedURL generates a pre-signed GET URL for obj.
// The URL is valid for the specified duration (max 7 days per S3 spec).
func (c *Client) PresignedURL(ctx context.Context, obj Object, expires time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", obj, err)
	}
	return req.URL, nil
}
