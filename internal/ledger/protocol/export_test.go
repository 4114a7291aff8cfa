package protocol

var (
	LayoutV120   = layoutV120
	LayoutV110   = layoutV110
	LayoutLegacy = layoutLegacy
)
