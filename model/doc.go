// Package model defines the vendor-neutral contract between the counsellor
// engine and language model providers: an ordered message sequence in, either
// final text or structured tool invocation requests out.
//
// Provider adapters live in sub-packages (openai, anthropic) and translate the
// normalized Request/Response shapes into vendor SDK calls. Adapters classify
// transport failures into ProviderError kinds (connection, timeout, auth,
// rate_limit, provider) so the calling surface can choose backoff and
// user-facing messaging per kind; nothing in this package retries.
package model
