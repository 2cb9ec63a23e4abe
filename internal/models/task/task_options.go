package task

// PatchOption - функция, дописывающая поле в патч
type PatchOption func(*Patch)

func NewPatch(options ...PatchOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

func WithTitle(title string) PatchOption {
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) PatchOption {
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithOwner(ownerID string) PatchOption {
	return func(p *Patch) {
		p.OwnerID = &ownerID
	}
}

// WithStatus всегда пишет согласованную пару status/completed
func WithStatus(status Status) PatchOption {
	return func(p *Patch) {
		legacy := LegacyStatus(status)
		completed := status == StatusComplete
		p.Status = &legacy
		p.Completed = &completed
	}
}

func WithImportant(important bool) PatchOption {
	return func(p *Patch) {
		p.Important = &important
	}
}

func WithFavorite(favorite bool) PatchOption {
	return func(p *Patch) {
		p.Favorite = &favorite
	}
}
