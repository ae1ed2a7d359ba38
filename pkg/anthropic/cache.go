package anthropic

// BuildCachedSystemBlocks wraps a system prompt in a single block with a
// cache breakpoint, so repeated calls with the same prompt hit the prompt
// cache. Empty text yields no blocks.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}
