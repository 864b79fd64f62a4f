package api

// Service accessors group resource operations. Each service embeds *Client.

type AuthService struct{ *Client }

type ProfileService struct{ *Client }

type DashboardService struct{ *Client }

type CategoriesService struct{ *Client }

type ItemsService struct{ *Client }

type OffersService struct{ *Client }

type PlansService struct{ *Client }

type ReviewsService struct{ *Client }

type OrdersService struct{ *Client }

func (c *Client) Auth() AuthService {
	return AuthService{c}
}

func (c *Client) Profile() ProfileService {
	return ProfileService{c}
}

func (c *Client) Dashboard() DashboardService {
	return DashboardService{c}
}

func (c *Client) Categories() CategoriesService {
	return CategoriesService{c}
}

func (c *Client) Items() ItemsService {
	return ItemsService{c}
}

func (c *Client) Offers() OffersService {
	return OffersService{c}
}

func (c *Client) Plans() PlansService {
	return PlansService{c}
}

func (c *Client) Reviews() ReviewsService {
	return ReviewsService{c}
}

func (c *Client) Orders() OrdersService {
	return OrdersService{c}
}
