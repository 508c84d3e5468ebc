package gateway

import "github.com/c360/busbridge/schema"

// DefaultRoutes returns the route registry for the downstream services the
// gateway fronts. One subject per route, one entry per pre-expanded path.
func DefaultRoutes() []Route {
	return []Route{
		{
			Path:        "/v1/chat/completions",
			Subject:     "svc.ai.inference.v1.chat",
			NewRequest:  func() any { return &schema.ChatRequest{} },
			NewResponse: func() any { return &schema.ChatChunk{} },
			NewChunk:    func() any { return &schema.ChatChunk{} },
		},
		{
			Path:        "/v1/embeddings",
			Subject:     "svc.ai.inference.v1.embed",
			NewRequest:  func() any { return &schema.EmbedRequest{} },
			NewResponse: func() any { return &schema.EmbedResponse{} },
		},
		{
			Path:        "/v1/models/load",
			Subject:     "svc.ai.model.v1.load",
			NewRequest:  func() any { return &schema.LoadModelRequest{} },
			NewResponse: func() any { return &schema.LoadModelResponse{} },
		},
		{
			Path:        "/v1/models/unload",
			Subject:     "svc.ai.model.v1.unload",
			NewRequest:  func() any { return &schema.UnloadModelRequest{} },
			NewResponse: func() any { return &schema.UnloadModelResponse{} },
		},
		{
			Path:        "/v1/models/list",
			Subject:     "svc.ai.model.v1.list",
			NewRequest:  func() any { return &schema.ListModelsRequest{} },
			NewResponse: func() any { return &schema.ListModelsResponse{} },
		},
		{
			Path:        "/v1/state/get",
			Subject:     "svc.game.state.v1.get",
			NewRequest:  func() any { return &schema.GetStateRequest{} },
			NewResponse: func() any { return &schema.GetStateResponse{} },
		},
		{
			Path:        "/v1/state/set",
			Subject:     "svc.game.state.v1.set",
			NewRequest:  func() any { return &schema.SetStateRequest{} },
			NewResponse: func() any { return &schema.SetStateResponse{} },
		},
		{
			Path:        "/v1/quests/generate",
			Subject:     "svc.game.quest.v1.generate",
			NewRequest:  func() any { return &schema.GenerateQuestRequest{} },
			NewResponse: func() any { return &schema.QuestChunk{} },
			NewChunk:    func() any { return &schema.QuestChunk{} },
		},
		{
			Path:        "/v1/npc/dialogue",
			Subject:     "svc.game.npc.v1.dialogue",
			NewRequest:  func() any { return &schema.NPCDialogueRequest{} },
			NewResponse: func() any { return &schema.DialogueChunk{} },
			NewChunk:    func() any { return &schema.DialogueChunk{} },
		},
	}
}
