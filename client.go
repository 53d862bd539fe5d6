// Copyright 2025 The retriever Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package retriever

import (
	"context"
	"crypto/tls"
	"iter"
	"os"
	"time"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/auth/oauth2adapt"
	"google.golang.org/grpc"
	grpccreds "google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	grpcoauth "google.golang.org/grpc/credentials/oauth"
	"google.golang.org/grpc/keepalive"

	"github.com/goretriever/retriever/internal/ctxlog"
)

const defaultServiceConfig = `{"methodConfig":[{"name":[{}],"retryPolicy":{"maxAttempts":5,"initialBackoff":"0.1s","maxBackoff":"1s","backoffMultiplier":2,"retryableStatusCodes":["UNAVAILABLE"]}}]}`

// Client is a typed client for the Semantic Retriever service.
type Client struct {
	conn *grpc.ClientConn
	rs   pb.RetrieverServiceClient
}

// NewClient creates a retriever client. Authentication uses the configured
// API key, the GEMINI_API_KEY / GOOGLE_API_KEY environment variables, or
// application default credentials, in that order.
func NewClient(ctx context.Context, optFns ...ClientOption) (*Client, error) {
	opts := defaultClientOptions()
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	dialOpts, err := buildDialOptions(opts)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(opts.endpoint, dialOpts...)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, rs: pb.NewRetrieverServiceClient(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func buildDialOptions(opts *clientOptions) ([]grpc.DialOption, error) {
	creds := grpccreds.NewTLS(&tls.Config{})
	if opts.useInsecure {
		creds = insecure.NewCredentials()
	}

	base := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(defaultMaxMessageBytes),
			grpc.MaxCallRecvMsgSize(defaultMaxMessageBytes),
		),
		grpc.WithDefaultServiceConfig(defaultServiceConfig),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithChainUnaryInterceptor(
			metadataUnaryInterceptor(opts.apiKey, opts.metadata),
			timeoutUnaryInterceptor(opts.timeout),
		),
	}

	// Without an API key, fall back to application default credentials.
	if opts.apiKey == "" && !opts.useInsecure {
		adc, err := credentials.DetectDefault(&credentials.DetectOptions{Scopes: opts.scopes})
		if err != nil {
			return nil, err
		}
		base = append(base, grpc.WithPerRPCCredentials(grpcoauth.TokenSource{
			TokenSource: oauth2adapt.TokenSourceFromTokenProvider(adc),
		}))
	}

	if len(opts.dialOptions) > 0 {
		base = append(base, opts.dialOptions...)
	}

	return base, nil
}

// CreateCorpus creates a Corpus. An empty name lets the service assign one;
// otherwise name must match the slug grammar and becomes "corpora/{name}".
func (c *Client) CreateCorpus(ctx context.Context, name, displayName string) (*Corpus, error) {
	corpus := &pb.Corpus{DisplayName: displayName}
	if name != "" {
		if err := checkName(name); err != nil {
			return nil, err
		}
		corpus.Name = "corpora/" + name
	}

	ctx, end := startSpan(ctx, "CreateCorpus", corpus.GetName())
	defer end()
	ctxlog.Debug(ctx, "creating corpus", "name", corpus.GetName())
	resp, err := c.rs.CreateCorpus(ctx, &pb.CreateCorpusRequest{Corpus: corpus})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeCorpus(c, resp), nil
}

// GetCorpus fetches a Corpus by bare ID or full resource name.
func (c *Client) GetCorpus(ctx context.Context, name string) (*Corpus, error) {
	name = corpusResourceName(name)

	ctx, end := startSpan(ctx, "GetCorpus", name)
	defer end()
	resp, err := c.rs.GetCorpus(ctx, &pb.GetCorpusRequest{Name: name})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeCorpus(c, resp), nil
}

// DeleteCorpus deletes a Corpus. With force, its documents and chunks are
// deleted too.
func (c *Client) DeleteCorpus(ctx context.Context, name string, force bool) error {
	name = corpusResourceName(name)

	ctx, end := startSpan(ctx, "DeleteCorpus", name)
	defer end()
	ctxlog.Debug(ctx, "deleting corpus", "name", name, "force", force)
	if _, err := c.rs.DeleteCorpus(ctx, &pb.DeleteCorpusRequest{Name: name, Force: force}); err != nil {
		return WrapError(err)
	}
	return nil
}

// ListCorpora returns a lazy sequence over all corpora, fetching pages of
// pageSize (service default when zero) as it is consumed.
func (c *Client) ListCorpora(ctx context.Context, pageSize int32) iter.Seq2[*Corpus, error] {
	return func(yield func(*Corpus, error) bool) {
		token := ""
		for {
			resp, err := c.rs.ListCorpora(ctx, &pb.ListCorporaRequest{
				PageSize:  pageSize,
				PageToken: token,
			})
			if err != nil {
				yield(nil, WrapError(err))
				return
			}
			for _, co := range resp.GetCorpora() {
				if !yield(decodeCorpus(c, co), nil) {
					return
				}
			}
			token = resp.GetNextPageToken()
			if token == "" {
				return
			}
		}
	}
}
