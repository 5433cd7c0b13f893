package imageman

// Version is one stored variant of an image, always built from a server
// response - the client never invents one on its own.
type Version struct {
	ID             int64  `json:"id"`
	VersionID      int64  `json:"version_id"`
	S3Key          string `json:"s3_key"`
	ImageID        int64  `json:"image_id"`
	CreatorSubject string `json:"creator_subject"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}
