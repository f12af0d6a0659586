package lmstudio

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// probeTimeout bounds the reachability check. The probe must stay cheap
// because it runs before every generation call.
const probeTimeout = 5 * time.Second

// Probe checks whether an LM Studio style server answers at baseURL by
// listing its models. Any network error, timeout, or non-success status is
// reported as false; the probe never returns an error.
func Probe(ctx context.Context, baseURL string) bool {
	cfg := openai.DefaultConfig("lm-studio")
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	client := openai.NewClientWithConfig(cfg)

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := client.ListModels(probeCtx)
	return err == nil
}
