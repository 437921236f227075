package legacy

import "github.com/GlobedGD/globed2-sub001/internal/protocol"

// registerV15 is the extension point for protocol version 15. Every packet
// id v15 decodes that this server also implements already matches the
// current wire shape (in particular LevelJoinPacket already carries
// level_hash at v15), so no upgrade overrides are needed. v15 predates
// LevelPlayerMetadataPacket, so it still needs the same down-conversion
// suppression as v13/v14.
func registerV15(t *Translator) {
	t.registerDowngrade(15, protocol.LevelPlayerMetadataID, downgradeSuppressed)
}
