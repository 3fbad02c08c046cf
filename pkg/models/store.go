package models

import "time"

// StoreConfigID is the fixed _id of the singleton store configuration
// document. All reads and upserts key on it so a concurrent first write
// cannot create a second document.
const StoreConfigID = "store-config"

type StoreProfile struct {
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	Currency string `bson:"currency" json:"currency"`
	Timezone string `bson:"timezone" json:"timezone"`
	Language string `bson:"language" json:"language"`
}

type ShippingConfig struct {
	FreeThreshold    float64 `bson:"freeThreshold" json:"freeThreshold"`
	StandardRate     float64 `bson:"standardRate" json:"standardRate"`
	ExpressRate      float64 `bson:"expressRate" json:"expressRate"`
	DeliveryEstimate string  `bson:"deliveryEstimate,omitempty" json:"deliveryEstimate,omitempty"`
}

type TaxConfig struct {
	Rate   float64 `bson:"rate" json:"rate"`
	Label  string  `bson:"label" json:"label"`
	Active bool    `bson:"active" json:"active"`
}

type HeroContent struct {
	Title    string `bson:"title,omitempty" json:"title,omitempty"`
	Subtitle string `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	CTA      string `bson:"cta,omitempty" json:"cta,omitempty"`
	Active   bool   `bson:"active" json:"active"`
}

type HeroSlide struct {
	ID     string `bson:"id" json:"id"`
	ImgSrc string `bson:"imgSrc" json:"imgSrc"`
	Brand  string `bson:"brand,omitempty" json:"brand,omitempty"`
	Active bool   `bson:"active" json:"active"`
}

type PromoContent struct {
	Text       string  `bson:"text,omitempty" json:"text,omitempty"`
	BgColor    string  `bson:"bgColor,omitempty" json:"bgColor,omitempty"`
	TextColor  string  `bson:"textColor,omitempty" json:"textColor,omitempty"`
	AlertColor string  `bson:"alertColor,omitempty" json:"alertColor,omitempty"`
	IsMarquee  bool    `bson:"isMarquee" json:"isMarquee"`
	Speed      float64 `bson:"speed,omitempty" json:"speed,omitempty"`
	Active     bool    `bson:"active" json:"active"`
}

type CMSContent struct {
	Hero          HeroContent `bson:"hero" json:"hero"`
	HeroSlides    []HeroSlide `bson:"heroSlides,omitempty" json:"heroSlides,omitempty"`
	Promo         PromoContent `bson:"promo" json:"promo"`
	FeaturedLimit int          `bson:"featuredLimit" json:"featuredLimit"`
}

type SEOConfig struct {
	Title       string `bson:"title,omitempty" json:"title,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Keywords    string `bson:"keywords,omitempty" json:"keywords,omitempty"`
}

type PaymentMethod struct {
	Name         string `bson:"name" json:"name"`
	Provider     string `bson:"provider,omitempty" json:"provider,omitempty"`
	Instructions string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Type         string `bson:"type" json:"type"`
	Status       string `bson:"status" json:"status"`
	IsDefault    bool   `bson:"isDefault" json:"isDefault"`
}

// StoreConfig is the singleton settings document read by every checkout.
type StoreConfig struct {
	ID             string          `bson:"_id" json:"-"`
	StoreProfile   StoreProfile    `bson:"storeProfile" json:"storeProfile"`
	Shipping       ShippingConfig  `bson:"shipping" json:"shipping"`
	Tax            TaxConfig       `bson:"tax" json:"tax"`
	CMS            CMSContent      `bson:"cms" json:"cms"`
	SEO            SEOConfig       `bson:"seo" json:"seo"`
	PaymentMethods []PaymentMethod `bson:"paymentMethods,omitempty" json:"paymentMethods,omitempty"`
	CreatedAt      time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// DefaultStoreConfig is the document seeded on first read.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		ID: StoreConfigID,
		StoreProfile: StoreProfile{
			Name:     "OpticsGlasses",
			Email:    "admin@opticsglasses.com",
			Currency: "PKR",
			Timezone: "UTC",
			Language: "en",
		},
		Shipping: ShippingConfig{FreeThreshold: 50, StandardRate: 399, ExpressRate: 999},
		Tax:      TaxConfig{Label: "Tax", Active: true},
		CMS:      CMSContent{FeaturedLimit: 4},
	}
}

// DefaultPaymentMethodCount counts methods marked default; at most one is
// allowed.
func (s *StoreConfig) DefaultPaymentMethodCount() int {
	n := 0
	for _, m := range s.PaymentMethods {
		if m.IsDefault {
			n++
		}
	}
	return n
}
