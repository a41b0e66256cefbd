package scoreproof

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/types"
)

// Resolver produces a score proof for an account within a protocol namespace.
// Resolution never fails outward: any transport or decoding problem yields the
// zero-score substitute proof, which drives assessment to its most
// conservative threshold.
type Resolver interface {
	Resolve(ctx context.Context, account common.Address, protocol string) types.ScoreProof
}

// RetryPolicy bounds the transient failure retries around one proof fetch.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries uint64
	// NewBackOff builds a fresh backoff schedule per fetch.
	NewBackOff func() backoff.BackOff
}

// DefaultRetryPolicy retries three times with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

// HTTPResolver fetches proofs from the score service's REST API.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
	log     zerolog.Logger
}

// NewHTTPResolver builds a resolver against the given service base URL.
func NewHTTPResolver(baseURL string, retry RetryPolicy) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		retry:   retry,
		log:     logger.GetForComponent("score_proof"),
	}
}

// proofRecord is the wire shape of one proof returned by the score service.
type proofRecord struct {
	Account     common.Address `json:"account"`
	Protocol    hexutil.Bytes  `json:"protocol"`
	Score       string         `json:"score"`
	MerkleProof []common.Hash  `json:"merkleProof"`
}

type scoresResponse struct {
	Data []proofRecord `json:"data"`
}

// Resolve fetches the account's proof, retrying transient failures per the
// retry policy and substituting the zero-score proof when the service cannot
// produce one.
func (r *HTTPResolver) Resolve(ctx context.Context, account common.Address, protocol string) types.ScoreProof {
	if r.baseURL == "" {
		return types.EmptyScoreProof(account, protocol)
	}

	var record *proofRecord
	operation := func() error {
		rec, err := r.fetch(ctx, account, protocol)
		if err != nil {
			return err
		}
		record = rec
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.retry.NewBackOff(), r.retry.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		r.log.Error().Err(err).
			Str("account", account.Hex()).
			Str("protocol", protocol).
			Msg("Score proof fetch failed, substituting zero-score proof")
		return types.EmptyScoreProof(account, protocol)
	}

	if record == nil {
		// The service has no score on file for this account.
		return types.EmptyScoreProof(account, protocol)
	}

	proof, err := record.toProof(account, protocol)
	if err != nil {
		r.log.Error().Err(err).
			Str("account", account.Hex()).
			Msg("Score proof record malformed, substituting zero-score proof")
		return types.EmptyScoreProof(account, protocol)
	}
	return proof
}

// fetch performs one GET against the score service.
func (r *HTTPResolver) fetch(ctx context.Context, account common.Address, protocol string) (*proofRecord, error) {
	endpoint, err := url.Parse(r.baseURL + "/v1/scores")
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid score API URL: %w", err))
	}
	q := endpoint.Query()
	q.Set("account", account.Hex())
	q.Set("protocol", protocol)
	q.Set("format", "proof")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("score service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed scoresResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, nil
	}
	return &parsed.Data[0], nil
}

// toProof converts a wire record into the contract proof shape.
func (p proofRecord) toProof(account common.Address, protocol string) (types.ScoreProof, error) {
	score, ok := new(big.Int).SetString(p.Score, 10)
	if !ok {
		return types.ScoreProof{}, fmt.Errorf("invalid score value %q", p.Score)
	}

	proto := types.ProtocolBytes32(protocol)
	if len(p.Protocol) == 32 {
		copy(proto[:], p.Protocol)
	}

	merkle := make([][32]byte, len(p.MerkleProof))
	for i, h := range p.MerkleProof {
		merkle[i] = h
	}

	return types.ScoreProof{
		Account:     account,
		Protocol:    proto,
		Score:       score,
		MerkleProof: merkle,
	}, nil
}
