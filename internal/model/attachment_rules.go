package model

// Shared upload validation rules. The client-side gate and any server-side
// mirror of it must agree on these exactly.

// MaxAttachedFiles caps the attachments on one submission.
const MaxAttachedFiles = 3

// MaxAttachmentBytes caps one uploaded file at 10 MiB.
const MaxAttachmentBytes int64 = 10 << 20

// AllowedAttachmentExtensions lists every accepted file extension,
// lowercased, with the leading dot.
var AllowedAttachmentExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp",
	".pdf", ".txt", ".log", ".json", ".csv",
}

// AttachmentExtensionAllowed checks a lowercased extension against the
// allow-list.
func AttachmentExtensionAllowed(extension string) bool {
	for _, allowedExtension := range AllowedAttachmentExtensions {
		if extension == allowedExtension {
			return true
		}
	}
	return false
}
