package schema

// GenerateQuestRequest asks the quest service to generate a quest line.
type GenerateQuestRequest struct {
	WorldID     string `json:"world_id,omitempty" cbor:"world_id,omitempty"`
	PlayerLevel int    `json:"player_level,omitempty" cbor:"player_level,omitempty"`
	Theme       string `json:"theme,omitempty" cbor:"theme,omitempty"`
}

// QuestChunk is one streamed fragment of a generated quest.
type QuestChunk struct {
	Stage string `json:"stage,omitempty" cbor:"stage,omitempty"`
	Text  string `json:"text,omitempty" cbor:"text,omitempty"`
}

// NPCDialogueRequest asks the NPC behavior service for a dialogue response.
type NPCDialogueRequest struct {
	NPCID      string            `json:"npc_id,omitempty" cbor:"npc_id,omitempty"`
	PlayerLine string            `json:"player_line,omitempty" cbor:"player_line,omitempty"`
	Context    map[string]string `json:"context,omitempty" cbor:"context,omitempty"`
}

// DialogueChunk is one streamed fragment of NPC dialogue.
type DialogueChunk struct {
	Text    string `json:"text,omitempty" cbor:"text,omitempty"`
	Emotion string `json:"emotion,omitempty" cbor:"emotion,omitempty"`
}
