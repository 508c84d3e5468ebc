package schema

// LoadModelRequest asks model management to load a model onto a device.
type LoadModelRequest struct {
	Name     string `json:"name,omitempty" cbor:"name,omitempty"`
	Revision string `json:"revision,omitempty" cbor:"revision,omitempty"`
	Device   string `json:"device,omitempty" cbor:"device,omitempty"`
}

// LoadModelResponse reports the outcome of a load operation.
type LoadModelResponse struct {
	Name   string `json:"name,omitempty" cbor:"name,omitempty"`
	Status string `json:"status,omitempty" cbor:"status,omitempty"`
}

// UnloadModelRequest asks model management to release a loaded model.
type UnloadModelRequest struct {
	Name string `json:"name,omitempty" cbor:"name,omitempty"`
}

// UnloadModelResponse reports the outcome of an unload operation.
type UnloadModelResponse struct {
	Name   string `json:"name,omitempty" cbor:"name,omitempty"`
	Status string `json:"status,omitempty" cbor:"status,omitempty"`
}

// ListModelsRequest lists loaded models, optionally filtered by device.
type ListModelsRequest struct {
	Device string `json:"device,omitempty" cbor:"device,omitempty"`
}

// ModelInfo describes one loaded model.
type ModelInfo struct {
	Name     string `json:"name,omitempty" cbor:"name,omitempty"`
	Revision string `json:"revision,omitempty" cbor:"revision,omitempty"`
	Device   string `json:"device,omitempty" cbor:"device,omitempty"`
	Status   string `json:"status,omitempty" cbor:"status,omitempty"`
}

// ListModelsResponse carries the loaded-model inventory.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models,omitempty" cbor:"models,omitempty"`
}
