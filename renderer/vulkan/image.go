package vulkan

// Image is a device image with its backing memory and an optional view.
type Image struct {
	dev    Device
	Handle Handle
	View   Handle
	Width  uint32
	Height uint32
	Format Format
}

// NewImage creates an image and, when aspect is non-zero, a view of it.
func NewImage(dev Device, info ImageCreateInfo, aspect ImageAspect) (*Image, error) {
	h, res := dev.CreateImage(info)
	if res != Success {
		return nil, resultError("create image", res)
	}
	img := &Image{
		dev:    dev,
		Handle: h,
		Width:  info.Width,
		Height: info.Height,
		Format: info.Format,
	}
	if aspect != 0 {
		view, res := dev.CreateImageView(h, info.Format, aspect)
		if res != Success {
			img.Destroy()
			return nil, resultError("create image view", res)
		}
		img.View = view
	}
	return img, nil
}

func (img *Image) Destroy() {
	if img.View != NullHandle {
		img.dev.DestroyImageView(img.View)
		img.View = NullHandle
	}
	if img.Handle != NullHandle {
		img.dev.DestroyImage(img.Handle)
		img.Handle = NullHandle
	}
}
